// file: websocket/metrics.go
package websocket

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/prometheus/client_golang/prometheus"

	"go-event-checkin/logger"
	"go-event-checkin/worker"
)

// Metrics receives operational signals from the hub and the scan pipeline.
type Metrics interface {
	ScanRecorded(eventID, checkpoint, action string)
	ScanRejected(eventID, reason string)
	ActiveCount(eventID, checkpoint string, n int)
	Connections(n int)
	BroadcastDropped(topic string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ScanRecorded(string, string, string) {}
func (NopMetrics) ScanRejected(string, string)         {}
func (NopMetrics) ActiveCount(string, string, int)     {}
func (NopMetrics) Connections(int)                     {}
func (NopMetrics) BroadcastDropped(string)             {}

// MultiMetrics fans each signal out to every sink.
type MultiMetrics []Metrics

func (m MultiMetrics) ScanRecorded(eventID, checkpoint, action string) {
	for _, s := range m {
		s.ScanRecorded(eventID, checkpoint, action)
	}
}

func (m MultiMetrics) ScanRejected(eventID, reason string) {
	for _, s := range m {
		s.ScanRejected(eventID, reason)
	}
}

func (m MultiMetrics) ActiveCount(eventID, checkpoint string, n int) {
	for _, s := range m {
		s.ActiveCount(eventID, checkpoint, n)
	}
}

func (m MultiMetrics) Connections(n int) {
	for _, s := range m {
		s.Connections(n)
	}
}

func (m MultiMetrics) BroadcastDropped(topic string) {
	for _, s := range m {
		s.BroadcastDropped(topic)
	}
}

// ------------------- prometheus -------------------

const promNamespace = "checkin"

// Collector is a prometheus.Collector for the check-in pipeline.
type Collector struct {
	scans       *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	inside      *prometheus.GaugeVec
	connections prometheus.Gauge
	dropped     *prometheus.CounterVec
}

var (
	_ Metrics              = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Name:      "scans_total",
				Help:      "Committed scans by checkpoint and action.",
			}, []string{"event_id", "checkpoint", "action"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Name:      "scan_rejections_total",
				Help:      "Scans refused before commit.",
			}, []string{"event_id", "reason"},
		),
		inside: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: promNamespace,
				Name:      "participants_inside",
				Help:      "Participants currently INSIDE a checkpoint.",
			}, []string{"event_id", "checkpoint"},
		),
		connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: promNamespace,
				Name:      "websocket_connections",
				Help:      "Open dashboard websocket connections.",
			},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Name:      "broadcast_dropped_total",
				Help:      "Broadcast messages dropped because a queue was full.",
			}, []string{"topic"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.scans.Describe(ch)
	c.rejections.Describe(ch)
	c.inside.Describe(ch)
	c.connections.Describe(ch)
	c.dropped.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.scans.Collect(ch)
	c.rejections.Collect(ch)
	c.inside.Collect(ch)
	c.connections.Collect(ch)
	c.dropped.Collect(ch)
}

func (c *Collector) ScanRecorded(eventID, checkpoint, action string) {
	c.scans.WithLabelValues(eventID, checkpoint, action).Inc()
}

func (c *Collector) ScanRejected(eventID, reason string) {
	c.rejections.WithLabelValues(eventID, reason).Inc()
}

func (c *Collector) ActiveCount(eventID, checkpoint string, n int) {
	c.inside.WithLabelValues(eventID, checkpoint).Set(float64(n))
}

func (c *Collector) Connections(n int) {
	c.connections.Set(float64(n))
}

func (c *Collector) BroadcastDropped(topic string) {
	c.dropped.WithLabelValues(topic).Inc()
}

// ------------------- cloudwatch -------------------

// Submitter runs a task off the caller's goroutine.
type Submitter interface {
	Submit(name string, task worker.Task) bool
}

// CloudWatchMetrics pushes each signal as a CloudWatch datum. Calls are
// handed to a Submitter so the hub and the scan path never wait on AWS.
type CloudWatchMetrics struct {
	client    cloudwatchiface.CloudWatchAPI
	namespace string
	submit    Submitter
	now       func() time.Time
}

var _ Metrics = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics builds a publisher for the given namespace.
func NewCloudWatchMetrics(client cloudwatchiface.CloudWatchAPI, namespace string, submit Submitter) *CloudWatchMetrics {
	return &CloudWatchMetrics{client: client, namespace: namespace, submit: submit, now: time.Now}
}

func (c *CloudWatchMetrics) ScanRecorded(eventID, checkpoint, action string) {
	c.putMetric("Scans", 1, cloudwatch.StandardUnitCount,
		dim("EventId", eventID), dim("Checkpoint", checkpoint), dim("Action", action))
}

func (c *CloudWatchMetrics) ScanRejected(eventID, reason string) {
	c.putMetric("ScanRejections", 1, cloudwatch.StandardUnitCount,
		dim("EventId", eventID), dim("Reason", reason))
}

func (c *CloudWatchMetrics) ActiveCount(eventID, checkpoint string, n int) {
	c.putMetric("ParticipantsInside", float64(n), cloudwatch.StandardUnitCount,
		dim("EventId", eventID), dim("Checkpoint", checkpoint))
}

func (c *CloudWatchMetrics) Connections(n int) {
	c.putMetric("DashboardConnections", float64(n), cloudwatch.StandardUnitCount)
}

func (c *CloudWatchMetrics) BroadcastDropped(topic string) {
	c.putMetric("BroadcastDropped", 1, cloudwatch.StandardUnitCount, dim("Topic", topic))
}

func dim(name, value string) *cloudwatch.Dimension {
	return &cloudwatch.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// putMetric packages up one CloudWatch call.
func (c *CloudWatchMetrics) putMetric(metricName string, value float64, unit string, dims ...*cloudwatch.Dimension) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(c.namespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: dims,
				Timestamp:  aws.Time(c.now()),
				Value:      aws.Float64(value),
				Unit:       aws.String(unit),
			},
		},
	}
	c.submit.Submit("cloudwatch:"+metricName, func(ctx context.Context) {
		if _, err := c.client.PutMetricDataWithContext(ctx, input); err != nil {
			logger.Error.Printf("[putMetric] CloudWatch metric failed (%s=%s): %v", metricName, strconv.FormatFloat(value, 'f', -1, 64), err)
		}
	})
}
