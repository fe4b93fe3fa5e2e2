package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange is the direct exchange all subscription events go through.
const Exchange = "subscription.events"

// Routing keys for lifecycle events.
const (
	KeySubscriptionCreated   = "subscription.created"
	KeySubscriptionCancelled = "subscription.cancelled"
	KeySubscriptionUpgraded  = "subscription.upgraded"
)

// QueueConfig binds a queue to a routing key on the events exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// DefaultQueues is one queue per lifecycle event.
var DefaultQueues = []QueueConfig{
	{QueueName: "subscription_created", RoutingKey: KeySubscriptionCreated},
	{QueueName: "subscription_cancelled", RoutingKey: KeySubscriptionCancelled},
	{QueueName: "subscription_upgraded", RoutingKey: KeySubscriptionUpgraded},
}

// SetupChannel opens a channel, declares the events exchange and binds the
// given queues to it.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
