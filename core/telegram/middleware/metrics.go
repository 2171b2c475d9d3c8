package middleware

import tele "gopkg.in/telebot.v4"

const replyStatsKey = "reply_stats"

// replyStats counts what a handler sent back for the update summary line.
type replyStats struct {
	messages int
	keyboard bool
}

// countingContext records successful outgoing calls in replyStats.
type countingContext struct {
	tele.Context
	stats *replyStats
}

func (c countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.stats.messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			c.stats.keyboard = c.stats.keyboard || v != nil
		case *tele.SendOptions:
			c.stats.keyboard = c.stats.keyboard || (v != nil && v.ReplyMarkup != nil)
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware counts the replies each handler sends.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &replyStats{}
		c.Set(replyStatsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters returns how many messages were sent or edited for the update
// and whether any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	if s, ok := c.Get(replyStatsKey).(*replyStats); ok {
		return s.messages, s.keyboard
	}
	return 0, false
}
