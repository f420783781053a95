package message

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Logger               watermill.LoggerAdapter
	RedisClient          *redis.Client
	ConfirmationRenderer ConfirmationRenderer
	Mailer               Mailer
	RegistrationRecorder RegistrationRecorder
}

type Router struct {
	*message.Router
}

func NewRouter(deps RouterDeps) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	router.AddMiddleware(correlationIDMiddleware)
	router.AddMiddleware(loggerMiddleware)
	router.AddMiddleware(handlerLogMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          deps.Logger,
	}.Middleware)

	config := cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        deps.RedisClient,
				ConsumerGroup: "svc-ticketing." + params.HandlerName,
			}, deps.Logger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: deps.Logger,
	}

	ep, err := cqrs.NewEventProcessorWithConfig(router, config)
	if err != nil {
		return nil, fmt.Errorf("creating event processor: %w", err)
	}

	handlers := []cqrs.EventHandler{
		cqrs.NewEventHandler("send-confirmation", handleSendConfirmation(deps.ConfirmationRenderer, deps.Mailer)),
		cqrs.NewEventHandler("record-registration", handleRecordRegistration(deps.RegistrationRecorder)),
	}

	if err := ep.AddHandlers(handlers...); err != nil {
		return nil, fmt.Errorf("adding handlers: %w", err)
	}

	return &Router{router}, nil
}
