package sources

// YouTube implementation is split across files by responsibility:
//   youtube_innertube.go  watch page / Innertube constants, player types, low-level HTTP primitives
//   youtube_errors.go     sentinel errors, AcquisitionError, failure classification
//   youtube_directory.go  caption track directory from the watch page
//   youtube_decode.go     json3 and timedtext decoders
//   youtube_fetch.go      single caption track download + decode
//   youtube_select.go     tier table and fallback walk over caption tracks
//   youtube_player.go     secondary path through ANDROID /player
//   youtube_transcript.go Acquirer: retry envelope around both paths
