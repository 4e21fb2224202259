package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"agendabot/utils/apperr"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func wav(t *testing.T, channels, bits uint16, rate uint32, samples int) []byte {
	t.Helper()
	dataSize := uint32(samples) * uint32(channels) * uint32(bits/8)
	h := waveHeader{
		FileSize:      36 + dataSize,
		FmtSize:       16,
		AudioFormat:   pcmFormat,
		NumChannels:   channels,
		SampleRate:    rate,
		ByteRate:      rate * uint32(channels) * uint32(bits/8),
		BlockAlign:    channels * bits / 8,
		BitsPerSample: bits,
		DataSize:      dataSize,
	}
	copy(h.RiffTag[:], "RIFF")
	copy(h.WaveTag[:], "WAVE")
	copy(h.FmtTag[:], "fmt ")
	copy(h.DataTag[:], "data")

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

type recorder struct {
	req  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (r *recorder) recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	r.req = req
	return r.resp, r.err
}

func transcript(texts ...string) *speechpb.RecognizeResponse {
	resp := &speechpb.RecognizeResponse{}
	for _, text := range texts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text}, {Transcript: "ignored"}},
		})
	}
	return resp
}

func TestTranscribe_WAVPassesThrough(t *testing.T) {
	rec := &recorder{resp: transcript("quero marcar ", "um corte amanhã")}
	tr := &GoogleTranscriber{recognize: rec.recognize, logger: zap.NewNop()}

	text, err := tr.Transcribe(context.Background(), wav(t, 1, 16, 8000, 10), "")

	require.NoError(t, err)
	assert.Equal(t, "quero marcar um corte amanhã", text)
	require.NotNil(t, rec.req)
	assert.Equal(t, int32(8000), rec.req.GetConfig().GetSampleRateHertz())
	assert.Equal(t, DefaultLanguage, rec.req.GetConfig().GetLanguageCode())
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, rec.req.GetConfig().GetEncoding())
}

func TestTranscribe_ConvertsOtherFormats(t *testing.T) {
	rec := &recorder{resp: transcript("oi")}
	var converted []byte
	tr := &GoogleTranscriber{
		recognize: rec.recognize,
		convert: func(_ context.Context, audio []byte) ([]byte, error) {
			converted = audio
			return wav(t, 1, 16, TargetSampleRate, 4), nil
		},
		logger: zap.NewNop(),
	}

	ogg := []byte("OggS not really opus")
	text, err := tr.Transcribe(context.Background(), ogg, "en-US")

	require.NoError(t, err)
	assert.Equal(t, "oi", text)
	assert.Equal(t, ogg, converted)
	assert.Equal(t, int32(TargetSampleRate), rec.req.GetConfig().GetSampleRateHertz())
	assert.Equal(t, "en-US", rec.req.GetConfig().GetLanguageCode())
}

func TestTranscribe_Rejections(t *testing.T) {
	rec := &recorder{resp: transcript()}
	failing := func(context.Context, []byte) ([]byte, error) { return nil, errors.New("boom") }
	tr := &GoogleTranscriber{recognize: rec.recognize, convert: failing, logger: zap.NewNop()}
	ctx := context.Background()

	_, err := tr.Transcribe(ctx, nil, "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = tr.Transcribe(ctx, make([]byte, MaxAudioBytes+1), "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = tr.Transcribe(ctx, wav(t, 2, 16, 16000, 4), "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Nil(t, rec.req)

	_, err = tr.Transcribe(ctx, wav(t, 1, 16, 16000, 4), "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), "silence yields no transcript")
}

func TestTranscribe_RecognizeError(t *testing.T) {
	rec := &recorder{err: errors.New("quota")}
	tr := &GoogleTranscriber{recognize: rec.recognize, logger: zap.NewNop()}

	_, err := tr.Transcribe(context.Background(), wav(t, 1, 16, 16000, 4), "")

	require.Error(t, err)
	assert.Empty(t, apperr.KindOf(err))
}

func TestParseWaveHeader(t *testing.T) {
	h, err := parseWaveHeader(wav(t, 1, 16, 16000, 2))
	require.NoError(t, err)
	assert.True(t, h.isLinear16Mono())
	assert.Equal(t, uint32(16000), h.SampleRate)

	_, err = parseWaveHeader([]byte("RIFF"))
	assert.Error(t, err)

	junk := wav(t, 1, 16, 16000, 2)
	copy(junk[8:12], "AVI ")
	_, err = parseWaveHeader(junk)
	assert.Error(t, err)

	h, err = parseWaveHeader(wav(t, 1, 8, 16000, 2))
	require.NoError(t, err)
	assert.False(t, h.isLinear16Mono())
}
