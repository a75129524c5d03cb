// Package command interprets inbound MQTT commands.
package command

import (
	"go.uber.org/zap"

	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/mqtt"
)

// Aux drives the auxiliary LED.
type Aux interface {
	SetAux(on bool) error
}

// Toggle is the shared auxiliary LED state.
type Toggle interface {
	FlipAux() bool
}

// Interpreter dispatches inbound messages by topic.
type Interpreter struct {
	topics    mqtt.Topics
	toggle    Toggle
	aux       Aux
	alarm     *alarm.Scheduler
	publisher mqtt.Publisher
	log       *zap.SugaredLogger

	// OnAlarmRejected, if set, is called for every dropped alarm-set payload.
	OnAlarmRejected func(logic.AlarmVerdict)
}

// New creates an Interpreter.
func New(topics mqtt.Topics, toggle Toggle, aux Aux, sched *alarm.Scheduler, publisher mqtt.Publisher, log *zap.SugaredLogger) *Interpreter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Interpreter{
		topics:    topics,
		toggle:    toggle,
		aux:       aux,
		alarm:     sched,
		publisher: publisher,
		log:       log.With("component", "command"),
	}
}

// Handle processes one inbound message. Topics other than the toggle and
// alarm-set topics are ignored. It has the signature of mqtt.Handler.
func (in *Interpreter) Handle(topic string, payload []byte) {
	switch topic {
	case in.topics.Toggle:
		in.handleToggle()
	case in.topics.AlarmSet:
		in.handleAlarmSet(payload)
	}
}

// handleToggle flips the auxiliary LED regardless of payload and publishes
// the new state.
func (in *Interpreter) handleToggle() {
	on := in.toggle.FlipAux()
	if err := in.aux.SetAux(on); err != nil {
		in.log.Errorf("aux led: %v", err)
	}
	if err := in.publisher.PublishToggle(on); err != nil {
		in.log.Errorf("publish toggle state: %v", err)
		return
	}
	in.log.Infof("aux led toggled, now %s", string(mqtt.FormatToggle(on)))
}

// handleAlarmSet stores a valid alarm time. Invalid payloads are dropped
// without a reply.
func (in *Interpreter) handleAlarmSet(payload []byte) {
	v := logic.ValidateAlarmTime(payload)
	if !v.OK() {
		in.log.Warnw("alarm set rejected", "verdict", string(v.Verdict), "bytes", len(payload))
		if in.OnAlarmRejected != nil {
			in.OnAlarmRejected(v.Verdict)
		}
		return
	}
	in.alarm.Set(v.Value)
	in.log.Infof("alarm set to %s", v.Value)
}
