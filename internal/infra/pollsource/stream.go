package pollsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"voteaudit/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	messagePolls        = "polls"
	messageOrganization = "organization"
)

type streamMessage struct {
	Type                     string          `json:"type"`
	Polls                    json.RawMessage `json:"polls,omitempty"`
	VoteDecryptPublicMainKey string          `json:"vote_decrypt_public_main_key,omitempty"`
}

// Stream subscribes to the backend's WebSocket feed and reconnects with
// exponential backoff until ctx is done.
type Stream struct {
	URL     string
	Token   string
	Dialer  *websocket.Dialer
	Keys    KeySink
	Feed    Publisher
	Logger  logrus.FieldLogger
	Metrics SnapshotObserver

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func (s *Stream) Run(ctx context.Context) error {
	minBackoff, maxBackoff := s.MinBackoff, s.MaxBackoff
	if minBackoff <= 0 {
		minBackoff = 500 * time.Millisecond
	}
	if maxBackoff < minBackoff {
		maxBackoff = 30 * time.Second
	}
	backoff := minBackoff
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = minBackoff
		}
		s.log().WithError(err).WithField("retry_in", backoff.String()).Warn("backend stream disconnected")
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Stream) session(ctx context.Context) (bool, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial backend stream: %w", err)
	}
	defer conn.Close()
	s.log().WithField("url", s.URL).Info("backend stream connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if err := s.handle(data); err != nil {
			s.log().WithError(err).Warn("ignoring backend stream message")
		}
	}
}

func (s *Stream) handle(data []byte) error {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	switch msg.Type {
	case messagePolls:
		var polls []domain.Poll
		if len(msg.Polls) > 0 {
			if err := json.Unmarshal(msg.Polls, &polls); err != nil {
				return fmt.Errorf("decode polls: %w", err)
			}
		}
		s.Feed.Publish(polls)
		if s.Metrics != nil {
			s.Metrics.ObserveSnapshot("websocket")
		}
		return nil
	case messageOrganization:
		if msg.VoteDecryptPublicMainKey == "" {
			return errors.New("organization message without key")
		}
		return s.Keys.SetBase64(msg.VoteDecryptPublicMainKey)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *Stream) log() logrus.FieldLogger {
	return loggerOrStandard(s.Logger)
}
