package eventlog

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	FetchTimeout    time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "MATCH_EVENTS",
		SubjectPrefix:   "competition.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          30 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Hour,
		FetchTimeout:    2 * time.Second,
	}
}

// JetStreamLog appends events to a stream under
// <prefix>.<competition>.<match>.<kind>. The event id doubles as the
// message id so retried appends are deduplicated by the server.
type JetStreamLog struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	logger *logging.Logger
}

type eventEnvelope struct {
	EventID       string    `json:"eventId"`
	CompetitionID string    `json:"competitionId"`
	MatchID       string    `json:"matchId"`
	Kind          string    `json:"kind"`
	Side          string    `json:"side,omitempty"`
	Minute        *int      `json:"minute,omitempty"`
	Player        string    `json:"player,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewJetStreamLog(ctx context.Context, cfg JetStreamConfig, logger *logging.Logger) (*JetStreamLog, error) {
	if logger == nil {
		logger = logging.Default()
	}
	defaults := DefaultJetStreamConfig()
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaults.URL
	}
	if strings.TrimSpace(cfg.StreamName) == "" {
		cfg.StreamName = defaults.StreamName
	}
	if strings.TrimSpace(cfg.SubjectPrefix) == "" {
		cfg.SubjectPrefix = defaults.SubjectPrefix
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}

	opts := []nats.Option{
		nats.Name("competition-engine"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("nats error", "error", err)
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, crerr.Wrap(err, "connect to nats")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, crerr.Wrap(err, "create jetstream context")
	}

	l := &JetStreamLog{nc: nc, js: js, config: cfg, logger: logger}
	if err := l.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, crerr.Wrap(err, "ensure stream")
	}

	return l, nil
}

func (l *JetStreamLog) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        l.config.StreamName,
		Description: "Live match events",
		Subjects:    []string{l.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      l.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Duplicates:  l.config.DuplicateWindow,
	}

	_, err := l.js.CreateOrUpdateStream(ctx, sc)
	if err != nil {
		return err
	}
	l.logger.Info("jetstream stream ready", "stream", sc.Name, "subjects", sc.Subjects)
	return nil
}

func (l *JetStreamLog) Append(ctx context.Context, event matchevent.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	data, err := encodeEnvelope(event)
	if err != nil {
		return crerr.Wrap(err, "marshal match event")
	}

	subject := eventSubject(l.config.SubjectPrefix, event.CompetitionID, event.MatchID, string(event.Kind))
	ack, err := l.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-ID":       []string{event.ID},
			"Event-Kind":     []string{string(event.Kind)},
			"Competition-ID": []string{event.CompetitionID},
		},
	},
		jetstream.WithMsgID(event.ID),
		jetstream.WithExpectStream(l.config.StreamName),
	)
	if err != nil {
		return crerr.Wrapf(err, "publish match event subject=%s", subject)
	}

	l.logger.DebugContext(ctx, "match event published",
		"subject", subject,
		"event_id", event.ID,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

// List replays one match's subject with an ordered consumer.
func (l *JetStreamLog) List(ctx context.Context, competitionID, matchID string) ([]matchevent.Event, error) {
	filter := eventSubject(l.config.SubjectPrefix, competitionID, matchID, ">")
	stream, err := l.js.Stream(ctx, l.config.StreamName)
	if err != nil {
		return nil, crerr.Wrap(err, "get stream")
	}
	info, err := stream.Info(ctx, jetstream.WithSubjectFilter(filter))
	if err != nil {
		return nil, crerr.Wrap(err, "read stream info")
	}
	remaining := 0
	for _, n := range info.State.Subjects {
		remaining += int(n)
	}
	if remaining == 0 {
		return nil, nil
	}

	cons, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, crerr.Wrap(err, "create ordered consumer")
	}

	out := make([]matchevent.Event, 0, remaining)
	for remaining > 0 {
		batch, err := cons.Fetch(min(remaining, 256), jetstream.FetchMaxWait(l.config.FetchTimeout))
		if err != nil {
			return nil, crerr.Wrap(err, "fetch match events")
		}

		received := 0
		for msg := range batch.Messages() {
			received++
			event, decodeErr := decodeEnvelope(msg.Data())
			if decodeErr != nil {
				l.logger.WarnContext(ctx, "skip undecodable match event", "subject", msg.Subject(), "error", decodeErr)
				continue
			}
			out = append(out, event)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			return nil, crerr.Wrap(err, "fetch match events")
		}
		if received == 0 {
			break
		}
		remaining -= received
	}

	return out, nil
}

func (l *JetStreamLog) Close() error {
	if l.nc == nil {
		return nil
	}
	return l.nc.Drain()
}

func encodeEnvelope(event matchevent.Event) ([]byte, error) {
	return sonic.Marshal(eventEnvelope{
		EventID:       event.ID,
		CompetitionID: event.CompetitionID,
		MatchID:       event.MatchID,
		Kind:          string(event.Kind),
		Side:          event.Side,
		Minute:        event.Minute,
		Player:        event.Player,
		Detail:        event.Detail,
		OccurredAt:    event.OccurredAt.UTC(),
	})
}

func decodeEnvelope(data []byte) (matchevent.Event, error) {
	var env eventEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return matchevent.Event{}, err
	}
	return matchevent.Event{
		ID:            env.EventID,
		CompetitionID: env.CompetitionID,
		MatchID:       env.MatchID,
		Kind:          matchevent.Kind(env.Kind),
		Side:          env.Side,
		Minute:        env.Minute,
		Player:        env.Player,
		Detail:        env.Detail,
		OccurredAt:    env.OccurredAt,
	}, nil
}

func eventSubject(prefix, competitionID, matchID, kind string) string {
	return fmt.Sprintf("%s.%s.%s.%s", prefix, subjectToken(competitionID), subjectToken(matchID), kind)
}

var subjectEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// subjectToken encodes an id as one subject token. Base32hex output never
// contains separators or wildcards and distinct ids stay distinct; the empty
// id becomes "_", which no encoding produces.
func subjectToken(v string) string {
	if v == "" {
		return "_"
	}
	return subjectEncoding.EncodeToString([]byte(v))
}
