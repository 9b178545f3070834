package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricDispatchResult counts forwarded shipping updates by outcome.
const MetricDispatchResult = "DispatchResult"

// Metrics publishes relay metrics to CloudWatch.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics publishing under namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{CloudWatch: cw, Namespace: namespace, nowFunc: time.Now}
}

// RecordDispatch adds one DispatchResult data point with the Outcome dimension.
func (m *Metrics) RecordDispatch(ctx context.Context, outcome string) error {
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.Namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(MetricDispatchResult),
				Dimensions: []cwtypes.Dimension{
					{Name: sdkaws.String("Outcome"), Value: sdkaws.String(outcome)},
				},
				Timestamp: sdkaws.Time(m.nowFunc()),
				Unit:      cwtypes.StandardUnitCount,
				Value:     sdkaws.Float64(1),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
