package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/audionotes/internal/recorder"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		noSave    bool
		chunkSize int
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record <audio-file>",
		Short: "Capture an audio file, transcribe it and save it as a note",
		Long: `Record plays the audio file through the recorder as if it were captured
from a microphone, sends it to the transcription relay and prints the
transcript. The recording and transcript are then saved as a new note
unless --no-save is given.

The file extension tells the server the audio format (.wav, .webm, .mp3 ...).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mic := &recorder.FileMicrophone{Path: args[0], ChunkSize: chunkSize, Interval: interval}
			c := a.controller(cmd, mic, args[0])
			ctx := cmd.Context()

			if err := c.StartRecording(ctx); err != nil {
				return userError(c, err)
			}

			select {
			case <-mic.Done():
			case <-ctx.Done():
			}

			if err := c.StopRecording(ctx); err != nil {
				return userError(c, err)
			}

			snap := c.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), snap.Transcript)
			if noSave {
				return nil
			}

			note, err := c.SaveNote(ctx)
			if err != nil {
				return userError(c, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved note %s (%s)\n", note.ID, note.AudioURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "only print the transcript")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "capture chunk size in bytes (default 16 KiB)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between captured chunks, simulates real-time recording")
	return cmd
}
