package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Settings carries process-level configuration loaded from the
// environment. ProcessingConfig (per-batch rendering options) lives in
// processing.go.
type Settings struct {
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	VideosPrefix  string
	AudiosPrefix  string
	OutputsPrefix string

	TelegramToken  string
	TelegramChatID int64

	TextFontPath  string
	EmojiFontPath string

	ErrorsLogPath string
}

func LoadSettings() (Settings, error) {
	s := Settings{
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3AccessKey: firstNonEmpty(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_ACCESS_KEY_ID")),
		S3SecretKey: firstNonEmpty(os.Getenv("S3_SECRET_ACCESS_KEY"), os.Getenv("S3_SECRET_ACCESS_KEY_ID")),

		VideosPrefix:  "videos/",
		AudiosPrefix:  "audios/",
		OutputsPrefix: "outputs/",

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		TextFontPath:  os.Getenv("VIDEOLAB_TEXT_FONT"),
		EmojiFontPath: os.Getenv("VIDEOLAB_EMOJI_FONT"),

		ErrorsLogPath: "errors.log",
	}

	if v := os.Getenv("VIDEOLAB_ERRORS_LOG"); v != "" {
		s.ErrorsLogPath = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.TelegramChatID = n
		}
	}
	if v := os.Getenv("S3_VIDEOS_PREFIX"); v != "" {
		s.VideosPrefix = v
	}
	if v := os.Getenv("S3_AUDIOS_PREFIX"); v != "" {
		s.AudiosPrefix = v
	}
	if v := os.Getenv("S3_OUTPUTS_PREFIX"); v != "" {
		s.OutputsPrefix = v
	}
	return s, nil
}

// S3Configured reports whether all S3 settings required for the remote
// media library are present. Local folder mode needs none of them.
func (s Settings) S3Configured() bool {
	return s.S3Endpoint != "" && s.S3Region != "" && s.S3Bucket != "" &&
		s.S3AccessKey != "" && s.S3SecretKey != ""
}

func (s Settings) TelegramConfigured() bool {
	return s.TelegramToken != "" && s.TelegramChatID != 0
}

func (s Settings) ValidateS3() error {
	if !s.S3Configured() {
		return errors.New("S3_ENDPOINT, S3_REGION, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_ACCESS_KEY are required for bucket mode")
	}
	return nil
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
