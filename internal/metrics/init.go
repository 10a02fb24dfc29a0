package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, trigger := range []string{"startup", "schedule", "watcher", "manual", "cli"} {
		ScanRunsTotal.WithLabelValues(trigger)
	}

	for _, outcome := range []string{"new_title", "existing_title", "rename", "duplicate"} {
		ReconcileOutcomes.WithLabelValues(outcome)
	}

	for _, status := range []string{"probed", "unavailable"} {
		ProbeTotal.WithLabelValues(status)
	}

	for _, strategy := range []string{"auto_thumbnail", "scored", "sequential", "placeholder"} {
		PosterStrategyTotal.WithLabelValues(strategy, "success")
		PosterStrategyTotal.WithLabelValues(strategy, "failure")
		PosterStrategyDuration.WithLabelValues(strategy)
	}

	for _, result := range []string{"ok", "missing", "placeholder", "corrupt", "regenerated", "failed"} {
		PosterValidationTotal.WithLabelValues(result)
	}

	for _, src := range []string{"ffmpeg", "placeholder"} {
		CatalogImages.WithLabelValues(src)
	}

	for _, kind := range []string{"create", "remove", "write", "ignored"} {
		WatcherEventsTotal.WithLabelValues(kind)
	}

	volumes := []string{"library", "cache", "data", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "read"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"add_movie", "get_movie", "find_movie", "update_movie_title",
		"set_runtime", "list_movies", "all_movie_ids", "movies_by_path_prefix",
		"get_media_file", "media_files_by_fingerprint", "media_files_for_movie",
		"upsert_media_file", "update_media_file_path", "update_media_metadata", "relink",
		"add_image", "images_for_movie", "poster_records", "search_titles",
		"play_state", "set_play_state", "continue_watching", "stats", "migrate"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, result := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(result)
	}
}
