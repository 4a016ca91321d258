package stream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	gomp3 "github.com/imcarsen/go-mp3"
)

// HTTPProvider implements AudioPacketProvider over an HTTP(S) MP3 stream
// (an Icecast/Shoutcast relay, typically). It owns the response body and
// the pure-Go mp3 decoder wrapped around it; ReadAudioPacket is called
// repeatedly by StreamDecoder until the connection drops or ctx is
// cancelled.
type HTTPProvider struct {
	url    string
	client *http.Client
	resp   *http.Response
	dec    *gomp3.Decoder
}

// NewHTTPProvider opens url and prepares an mp3 decoder over its body.
// The caller must call Close when done to release the connection.
func NewHTTPProvider(ctx context.Context, url string) (*HTTPProvider, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: build request: %w", err)
	}
	req.Header.Set("Icy-MetaData", "0")

	const openTimeout = 5 * time.Second
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: openTimeout}).DialContext
	transport.ResponseHeaderTimeout = openTimeout
	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream: connect to %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream: %s returned status %s", url, resp.Status)
	}

	dec, err := gomp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("stream: decode %s: %w", url, err)
	}

	return &HTTPProvider{url: url, client: client, resp: resp, dec: dec}, nil
}

// Format returns the decoder's detected sample rate; channel count is
// always 2 for go-mp3.
func (p *HTTPProvider) Format() AudioFormat {
	return AudioFormat{
		SampleRate:     p.dec.SampleRate(),
		Channels:       2,
		BytesPerSample: 2,
	}
}

// ReadAudioPacket reads up to samples stereo frames from the stream.
func (p *HTTPProvider) ReadAudioPacket(ctx context.Context, samples int) (*AudioPacket, error) {
	format := p.Format()
	frameSize := format.Channels * format.BytesPerSample
	buf := make([]byte, samples*frameSize)

	n, err := io.ReadFull(p.dec, buf)
	if err != nil && err != io.ErrUnexpectedEOF && n == 0 {
		return nil, err
	}

	return &AudioPacket{
		Audio:        buf,
		SamplesCount: n / frameSize,
		Format:       format,
	}, nil
}

// Close releases the underlying HTTP connection.
func (p *HTTPProvider) Close() error {
	if p.resp != nil {
		return p.resp.Body.Close()
	}
	return nil
}
