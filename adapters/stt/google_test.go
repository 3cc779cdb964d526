package stt_test

import (
	"github.com/satriahrh/gymbuddy/adapters/stt"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

var (
	_ repositories.SpeechToText = &stt.GoogleSpeechToText{}
	_ repositories.SpeechToText = &stt.WhisperSpeechToText{}
	_ repositories.SpeechToText = &stt.MockSpeechToText{}
)
