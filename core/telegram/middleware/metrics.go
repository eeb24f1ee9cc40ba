package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// MessageObserver is told about every message successfully sent to a user.
type MessageObserver func(withKeyboard bool)

const countersKey = "send_counters"

// sendCounters is updated from the send dispatcher's goroutine.
type sendCounters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// countingContext counts replies sent through the wrapped context.
type countingContext struct {
	tele.Context
	counters *sendCounters
	observe  MessageObserver
}

func (m countingContext) record(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	kb := carriesMarkup(opts)
	m.counters.messages.Add(1)
	if kb {
		m.counters.keyboard.Store(true)
	}
	if m.observe != nil {
		m.observe(kb)
	}
	return nil
}

func carriesMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v != nil
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		}
	}
	return false
}

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetrics counts replies per update for the handler summary and
// forwards each successful send to observe when it is non-nil.
func MessageMetrics(observe MessageObserver) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			counters := &sendCounters{}
			c.Set(countersKey, counters)
			return next(countingContext{Context: c, counters: counters, observe: observe})
		}
	}
}

// GetCounters reports how many replies the update produced and whether any
// carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	if sc, ok := c.Get(countersKey).(*sendCounters); ok && sc != nil {
		return int(sc.messages.Load()), sc.keyboard.Load()
	}
	return 0, false
}
