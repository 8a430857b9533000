package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coregatekit/microservices/internal/domain"
	pkgkafka "github.com/coregatekit/microservices/pkg/kafka"
)

// Kafka topics for user and address domain events.
var (
	TopicUserRegistered        = pkgkafka.Topic("user", "registered")
	TopicAddressCreated        = pkgkafka.Topic("address", "created")
	TopicAddressUpdated        = pkgkafka.Topic("address", "updated")
	TopicAddressDefaultChanged = pkgkafka.Topic("address", "default_changed")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeAddress = "address"
)

// Source identifier for events originating from this service.
const SourceUserService = "user-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AddressCreatedData is the payload for an address.created event.
type AddressCreatedData struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Type      domain.AddressType `json:"type"`
	City      string             `json:"city"`
	Country   string             `json:"country"`
	IsDefault bool               `json:"is_default"`
}

// AddressUpdatedData is the payload for an address.updated event.
type AddressUpdatedData struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Type      domain.AddressType `json:"type"`
	IsDefault bool               `json:"is_default"`
}

// AddressDefaultChangedData is the payload for an address.default_changed
// event, emitted whenever the default of a (user, type) pair moves.
type AddressDefaultChangedData struct {
	AddressID string             `json:"address_id"`
	UserID    string             `json:"user_id"`
	Type      domain.AddressType `json:"type"`
}

// Producer publishes user and address domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the user service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishAddressCreated publishes an address.created event.
func (p *Producer) PublishAddressCreated(ctx context.Context, a *domain.Address) error {
	data := AddressCreatedData{
		ID:        a.ID,
		UserID:    a.UserID,
		Type:      a.Type,
		City:      a.City,
		Country:   a.Country,
		IsDefault: a.IsDefault,
	}

	event, err := pkgkafka.NewEvent(TopicAddressCreated, a.ID, AggregateTypeAddress, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create address.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressCreated, event); err != nil {
		return fmt.Errorf("publish address.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published address.created event",
		slog.String("address_id", a.ID),
		slog.String("user_id", a.UserID),
	)

	return nil
}

// PublishAddressUpdated publishes an address.updated event.
func (p *Producer) PublishAddressUpdated(ctx context.Context, a *domain.Address) error {
	data := AddressUpdatedData{
		ID:        a.ID,
		UserID:    a.UserID,
		Type:      a.Type,
		IsDefault: a.IsDefault,
	}

	event, err := pkgkafka.NewEvent(TopicAddressUpdated, a.ID, AggregateTypeAddress, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create address.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressUpdated, event); err != nil {
		return fmt.Errorf("publish address.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published address.updated event",
		slog.String("address_id", a.ID),
		slog.String("user_id", a.UserID),
	)

	return nil
}

// PublishAddressDefaultChanged publishes an address.default_changed event.
func (p *Producer) PublishAddressDefaultChanged(ctx context.Context, userID, addressID string, typ domain.AddressType) error {
	data := AddressDefaultChangedData{
		AddressID: addressID,
		UserID:    userID,
		Type:      typ,
	}

	event, err := pkgkafka.NewEvent(TopicAddressDefaultChanged, addressID, AggregateTypeAddress, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create address.default_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressDefaultChanged, event); err != nil {
		return fmt.Errorf("publish address.default_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published address.default_changed event",
		slog.String("address_id", addressID),
		slog.String("user_id", userID),
		slog.String("type", string(typ)),
	)

	return nil
}
