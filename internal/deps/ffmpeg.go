package deps

// FFmpegRequirement describes the transcoder used when saving recordings.
// Generation only needs the speech provider, so a missing ffmpeg is fatal for
// recording uploads alone.
func FFmpegRequirement(command string) Requirement {
	if command == "" {
		command = "ffmpeg"
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     command,
		Description: "Transcodes recorded audio to MP3 (save-audio, studio uploads)",
	}
}

// CheckFFmpeg reports whether the configured ffmpeg can be resolved.
func CheckFFmpeg(command string) Status {
	return CheckBinaries([]Requirement{FFmpegRequirement(command)})[0]
}
