// Package poster synthesizes a representative still frame for a video file
// and stores it in the content-addressed artifact cache.
//
// Generation walks an ordered list of strategies and stops at the first one
// that produces a non-empty image:
//
//   - auto_thumbnail: ffmpeg's thumbnail filter picks a frame
//   - scored: candidate timestamps are ranked by luma and edge statistics and
//     the best one is extracted
//   - sequential: candidates are tried in ascending order when no statistics
//     could be obtained
//   - placeholder: a 1x1 JPEG is written so the title still has an artifact
//
// Every ffmpeg invocation goes through a Runner and is bounded by a timeout.
// Tool failures never escape Generate; only a failure to write the
// placeholder does.
//
// The Validator re-checks catalog posters on disk and regenerates the ones
// that are missing, undecodable, or placeholders.
package poster
