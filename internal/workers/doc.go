// Package workers derives worker-pool sizes for the scanner's stat phase.
//
// Go 1.19+ sets GOMAXPROCS from the container CPU quota, so Count scales with
// the CPUs actually granted to the process rather than the host total. The
// REELSHELF_SCAN_WORKERS environment variable pins the count, which is useful
// on network shares where parallel stat calls hurt more than they help.
package workers
