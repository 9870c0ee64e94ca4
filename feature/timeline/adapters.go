package timeline

import "context"

// MetricsRecorder is the string-labelled recorder behind an Observer,
// satisfied by metrics.Collector.
type MetricsRecorder interface {
	FetchCompleted(feed, kind string)
	Transition(feed, from, to string)
	GapCompleted(feed, outcome string, fallback bool)
}

// ObserveMetrics adapts m to Observer.
func ObserveMetrics(m MetricsRecorder) Observer {
	return metricsObserver{m: m}
}

type metricsObserver struct {
	m MetricsRecorder
}

func (o metricsObserver) FetchCompleted(feed, kind string) {
	o.m.FetchCompleted(feed, kind)
}

func (o metricsObserver) Transitioned(feed string, from, to State) {
	o.m.Transition(feed, string(from), string(to))
}

func (o metricsObserver) GapCompleted(feed string, state GapState, fallback bool) {
	o.m.GapCompleted(feed, string(state), fallback)
}

// TopicPublisher publishes a JSON-encodable value on a topic, satisfied by pubsub.Publisher.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, v any) error
}

// PublishTo adapts p to Publisher. Each projection is published on its feed id.
func PublishTo(p TopicPublisher) Publisher {
	return topicPublisher{p: p}
}

type topicPublisher struct {
	p TopicPublisher
}

func (t topicPublisher) Publish(ctx context.Context, proj Projection) error {
	return t.p.Publish(ctx, proj.Feed, proj)
}
