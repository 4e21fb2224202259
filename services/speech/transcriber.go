// Package speech turns inbound voice notes into text for the conversation
// agent.
package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"agendabot/utils/apperr"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	MaxAudioBytes     = 5 * 1024 * 1024
	TargetSampleRate  = 16000
	DefaultLanguage   = "pt-BR"
	wavHeaderSize     = 44
	pcmFormat         = 1
	pcmBitsPerSample  = 16
	monoChannelLayout = 1
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleTranscriber uses Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client    *speech.Client
	recognize recognizeFunc
	// convert re-encodes audio that is not already LINEAR16 mono WAV.
	convert func(ctx context.Context, audio []byte) ([]byte, error)
	logger  *zap.Logger
}

// NewGoogleTranscriber opens a Speech client. An empty credentialsFile uses
// application default credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &GoogleTranscriber{
		client: client,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		convert: convertWithFFmpeg,
		logger:  logger,
	}, nil
}

func (t *GoogleTranscriber) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", apperr.InvalidArgument("audio is empty")
	}
	if len(audio) > MaxAudioBytes {
		return "", apperr.InvalidArgument("audio exceeds %d bytes", MaxAudioBytes)
	}
	if language == "" {
		language = DefaultLanguage
	}

	pcm, sampleRate, err := t.prepare(ctx, audio)
	if err != nil {
		return "", err
	}

	resp, err := t.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(sampleRate),
			LanguageCode:      language,
			AudioChannelCount: monoChannelLayout,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", apperr.InvalidArgument("no speech recognized in audio")
	}
	return strings.Join(parts, " "), nil
}

// prepare returns LINEAR16 mono audio and its sample rate, converting when the
// input is anything else (voice notes usually arrive as ogg/opus).
func (t *GoogleTranscriber) prepare(ctx context.Context, audio []byte) ([]byte, uint32, error) {
	if h, err := parseWaveHeader(audio); err == nil && h.isLinear16Mono() {
		return audio, h.SampleRate, nil
	}
	if t.convert == nil {
		return nil, 0, apperr.InvalidArgument("audio must be 16-bit mono PCM WAV")
	}

	converted, err := t.convert(ctx, audio)
	if err != nil {
		t.logger.Warn("audio conversion failed", zap.Int("bytes", len(audio)), zap.Error(err))
		return nil, 0, apperr.Wrap(apperr.KindInvalidArgument, err, "audio format not supported")
	}
	h, err := parseWaveHeader(converted)
	if err != nil || !h.isLinear16Mono() {
		return nil, 0, apperr.InvalidArgument("converted audio is not 16-bit mono PCM WAV")
	}
	return converted, h.SampleRate, nil
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < wavHeaderSize {
		return nil, errors.New("invalid WAV header length")
	}
	var h waveHeader
	if err := binary.Read(bytes.NewReader(data[:wavHeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE" || string(h.FmtTag[:]) != "fmt " {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	return &h, nil
}

func (h *waveHeader) isLinear16Mono() bool {
	return h.AudioFormat == pcmFormat &&
		h.BitsPerSample == pcmBitsPerSample &&
		h.NumChannels == monoChannelLayout &&
		h.SampleRate > 0
}

// convertWithFFmpeg pipes audio through ffmpeg into 16kHz mono LINEAR16 WAV.
func convertWithFFmpeg(ctx context.Context, audio []byte) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in system PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-f", "wav",
		"-bitexact",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return stdout.Bytes(), nil
}
