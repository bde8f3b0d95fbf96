package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"
)

// EnrichmentFunc computes the metadata to merge into a message during the
// connect stage. Returning an error routes the message to the dead letter
// channel instead of failing the consume loop.
type EnrichmentFunc func(msg comms.Message) (map[string]string, error)

// DefaultEnrichment tags every message as enriched. Stands in for a real
// lookup against a directory or routing table.
func DefaultEnrichment(comms.Message) (map[string]string, error) {
	return map[string]string{"enriched": "true"}, nil
}

// EncodeMessage serializes a message for publication on the bus.
func EncodeMessage(msg comms.Message) (string, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeMessage parses a bus value back into a message.
func DecodeMessage(value string) (comms.Message, error) {
	var msg comms.Message
	if err := json.Unmarshal([]byte(value), &msg); err != nil {
		return comms.Message{}, errs.NewValueIsInvalidErrorWithCause("message", err)
	}
	return msg, nil
}

// publicationsFor builds the batch of one message publication plus the three
// event publications of a transition.
func publicationsFor(channel ports.Channel, tr comms.TransitionResult) ([]ports.Publication, error) {
	encoded, err := EncodeMessage(tr.Updated)
	if err != nil {
		return nil, err
	}

	batch := make([]ports.Publication, 0, 4)
	batch = append(batch, ports.Publication{
		Channel: channel,
		Key:     tr.Updated.MessageID,
		Value:   encoded,
	})
	for _, event := range tr.Events() {
		raw, marshalErr := json.Marshal(event)
		if marshalErr != nil {
			return nil, marshalErr
		}
		batch = append(batch, ports.Publication{
			Channel: ports.ChannelNotifications,
			Key:     event.MessageID,
			Value:   string(raw),
		})
	}
	return batch, nil
}

// ReceiveStage admits raw requests into the pipeline. It is the only stage
// invoked synchronously by callers rather than from a bus subscription.
type ReceiveStage struct {
	bus    ports.MessageBus
	logger *slog.Logger
}

// NewReceiveStage creates the stage.
func NewReceiveStage(bus ports.MessageBus, logger *slog.Logger) *ReceiveStage {
	return &ReceiveStage{bus: bus, logger: logger.With("component", "receive_stage")}
}

// Accept validates and normalizes the request, mints the message id and
// publishes the RECEIVED message with its events as one batch. It returns the
// new message id once the batch is published.
func (s *ReceiveStage) Accept(ctx context.Context, from, to, msgType, payload, correlationID string) (string, error) {
	tr, err := comms.OnReceive(from, to, msgType, payload, correlationID)
	if err != nil {
		return "", err
	}

	batch, err := publicationsFor(ports.ChannelInbound, tr)
	if err != nil {
		return "", err
	}
	if err := s.bus.Publish(ctx, batch...); err != nil {
		return "", err
	}

	s.logger.Info("message received",
		"messageId", tr.Updated.MessageID,
		"from", tr.Updated.FromSubsystem,
		"to", tr.Updated.ToSubsystem,
		"type", tr.Updated.Type,
		"correlationId", tr.Updated.CorrelationID)
	return tr.Updated.MessageID, nil
}

// ConnectStage enriches RECEIVED messages. Enrichment failure is the
// pipeline's only modeled failure path: the message goes to the dead letter
// channel in state FAILED and the consume loop carries on.
type ConnectStage struct {
	bus    ports.MessageBus
	gate   *DuplicationGate
	enrich EnrichmentFunc
	logger *slog.Logger
}

// NewConnectStage creates the stage with the given enrichment function.
func NewConnectStage(bus ports.MessageBus, gate *DuplicationGate, enrich EnrichmentFunc, logger *slog.Logger) *ConnectStage {
	return &ConnectStage{
		bus:    bus,
		gate:   gate,
		enrich: enrich,
		logger: logger.With("component", "connect_stage"),
	}
}

// Process moves one message from RECEIVED to CONNECTED, or to FAILED when
// enrichment does not succeed.
func (s *ConnectStage) Process(ctx context.Context, msg comms.Message) error {
	return s.gate.WithLock(msg.MessageID, func() error {
		enrichment, err := s.enrich(msg)
		if err != nil {
			return s.routeToDeadLetter(ctx, msg, err)
		}

		tr, err := comms.Connect(msg, enrichment)
		if err != nil {
			return err
		}

		batch, err := publicationsFor(ports.ChannelConnected, tr)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(ctx, batch...); err != nil {
			return err
		}

		s.logger.Info("message connected", "messageId", msg.MessageID)
		return nil
	})
}

func (s *ConnectStage) routeToDeadLetter(ctx context.Context, msg comms.Message, cause error) error {
	tr := comms.Failed(msg, comms.FailureEnrichmentFailed)

	batch, err := publicationsFor(ports.ChannelDeadLetter, tr)
	if err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, batch...); err != nil {
		return err
	}

	s.logger.Error("message enrichment failed",
		"messageId", msg.MessageID,
		"error", cause)
	return nil
}

// SendStage stages CONNECTED messages for delivery. Begin writes the outbox
// record and publishes SENDING; DrainOutbox performs the simulated delivery
// and completes SENDING to SENT.
type SendStage struct {
	bus    ports.MessageBus
	outbox ports.OutboxStore
	gate   *DuplicationGate
	logger *slog.Logger
}

// NewSendStage creates the stage.
func NewSendStage(bus ports.MessageBus, outbox ports.OutboxStore, gate *DuplicationGate, logger *slog.Logger) *SendStage {
	return &SendStage{
		bus:    bus,
		outbox: outbox,
		gate:   gate,
		logger: logger.With("component", "send_stage"),
	}
}

// Begin moves one message from CONNECTED to SENDING. The outbox record is
// written before the publication so a crash after this call can always be
// recovered by the drain.
func (s *SendStage) Begin(ctx context.Context, msg comms.Message) error {
	return s.gate.WithLock(msg.MessageID, func() error {
		tr, err := comms.Sending(msg)
		if err != nil {
			return err
		}

		encoded, err := EncodeMessage(tr.Updated)
		if err != nil {
			return err
		}
		record := ports.OutboxRecord{
			MessageID: tr.Updated.MessageID,
			Payload:   encoded,
			Headers:   map[string]string{"Idempotency-Key": tr.Updated.MessageID},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.outbox.Save(ctx, record); err != nil {
			return err
		}

		batch, err := publicationsFor(ports.ChannelOutbound, tr)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(ctx, batch...); err != nil {
			return err
		}

		s.logger.Info("delivery staged",
			"messageId", tr.Updated.MessageID,
			"to", tr.Updated.ToSubsystem,
			"type", tr.Updated.Type)
		return nil
	})
}

// DrainOutbox delivers up to max pending outbox records: for each record it
// performs the simulated external delivery, publishes the SENT message with
// its events and marks the record dispatched. Returns the number of records
// dispatched. A record that fails to process is logged and skipped; it stays
// pending for the next drain.
func (s *SendStage) DrainOutbox(ctx context.Context, max int) (int, error) {
	pending, err := s.outbox.FindPending(ctx, max)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, record := range pending {
		if err := s.dispatchOne(ctx, record); err != nil {
			s.logger.Error("outbox dispatch failed",
				"messageId", record.MessageID,
				"error", err)
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *SendStage) dispatchOne(ctx context.Context, record ports.OutboxRecord) error {
	return s.gate.WithLock(record.MessageID, func() error {
		msg, err := DecodeMessage(record.Payload)
		if err != nil {
			return err
		}

		// The delivery itself is simulated; a real system would call the
		// receiving subsystem here based on msg.ToSubsystem and msg.Type.
		tr, err := comms.Sent(msg)
		if err != nil {
			return err
		}

		batch, err := publicationsFor(ports.ChannelOutbound, tr)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(ctx, batch...); err != nil {
			return err
		}
		if err := s.outbox.MarkDispatched(ctx, record.MessageID); err != nil {
			return err
		}

		s.logger.Info("delivery completed",
			"messageId", record.MessageID,
			"to", msg.ToSubsystem,
			"type", msg.Type)
		return nil
	})
}

// NotifyStage closes the loop: once a consumer subsystem observed a SENT
// message, the message moves to its terminal NOTIFIED state.
type NotifyStage struct {
	bus    ports.MessageBus
	gate   *DuplicationGate
	logger *slog.Logger
}

// NewNotifyStage creates the stage.
func NewNotifyStage(bus ports.MessageBus, gate *DuplicationGate, logger *slog.Logger) *NotifyStage {
	return &NotifyStage{
		bus:    bus,
		gate:   gate,
		logger: logger.With("component", "notify_stage"),
	}
}

// Notify moves one message from SENT to NOTIFIED and publishes the terminal
// message and its event triple.
func (s *NotifyStage) Notify(ctx context.Context, msg comms.Message) error {
	return s.gate.WithLock(msg.MessageID, func() error {
		tr, err := comms.Notified(msg)
		if err != nil {
			return err
		}

		// Terminal state: no next channel, only the event triple goes out.
		batch := make([]ports.Publication, 0, 3)
		for _, event := range tr.Events() {
			raw, marshalErr := json.Marshal(event)
			if marshalErr != nil {
				return marshalErr
			}
			batch = append(batch, ports.Publication{
				Channel: ports.ChannelNotifications,
				Key:     event.MessageID,
				Value:   string(raw),
			})
		}
		if err := s.bus.Publish(ctx, batch...); err != nil {
			return err
		}

		s.logger.Info("message notified", "messageId", msg.MessageID)
		return nil
	})
}
