package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"Akshayapatra/storage/mq"
)

// 交换机与队列拓扑。业务事件走 topic 交换机，
// 分期提醒走延迟交换机（需要 rabbitmq_delayed_message_exchange 插件）。
const (
	ExchangeEvents  = "akpt.events"
	ExchangeDelayed = "akpt.delayed"

	QueueReferralRecompute   = "akpt.referral.recompute"
	QueuePaymentSettled      = "akpt.payment.settled"
	QueueRewardNotify        = "akpt.reward.notify"
	QueueInstallmentReminder = "akpt.installment.reminder"

	RoutingKeyReferralRecompute   = "referral.recompute"
	RoutingKeyPaymentSettled      = "payment.settled"
	RoutingKeyRewardNotify        = "reward.notify"
	RoutingKeyInstallmentReminder = "installment.reminder"
)

// DeclareTopology 声明全部交换机、队列与绑定，幂等，server 与 worker 启动时各跑一次。
func DeclareTopology() error {
	conn := mq.Connection()
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		ExchangeEvents,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeDelayed,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		amqp.Table{"x-delayed-type": "topic"},
	); err != nil {
		return fmt.Errorf("failed to declare delayed exchange: %w", err)
	}

	bindings := []struct {
		queue      string
		routingKey string
		exchange   string
	}{
		{QueueReferralRecompute, RoutingKeyReferralRecompute, ExchangeEvents},
		{QueuePaymentSettled, RoutingKeyPaymentSettled, ExchangeEvents},
		{QueueRewardNotify, RoutingKeyRewardNotify, ExchangeEvents},
		{QueueInstallmentReminder, RoutingKeyInstallmentReminder, ExchangeDelayed},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}
