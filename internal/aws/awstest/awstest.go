// Package awstest provides in-memory fakes of the relay's AWS interfaces for tests.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Item is a stored DynamoDB item.
type Item = map[string]types.AttributeValue

// Dynamo is a small multi-table DynamoDB fake. It understands the
// expressions the relay stores issue: SET lists with plain values or
// if_not_exists(x, :a) + :b, "#name = :value" conditions and
// attribute_not_exists / attribute_exists.
type Dynamo struct {
	mu     sync.Mutex
	Tables map[string]map[string]Item
	// Keys maps table name to its partition key attribute.
	Keys map[string]string

	// Err, when set, is returned by every call.
	Err error

	PutCalls      int
	GetCalls      int
	UpdateCalls   int
	TransactCalls int
}

// NewDynamo returns an empty fake; keys maps each table to its partition key.
func NewDynamo(keys map[string]string) *Dynamo {
	return &Dynamo{Tables: map[string]map[string]Item{}, Keys: keys}
}

func (d *Dynamo) table(name string) map[string]Item {
	t, ok := d.Tables[name]
	if !ok {
		t = map[string]Item{}
		d.Tables[name] = t
	}
	return t
}

// Seed stores item in table, bypassing conditions.
func (d *Dynamo) Seed(table string, item Item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pk, err := d.primaryKey(table, item)
	if err != nil {
		panic(err)
	}
	d.table(table)[pk] = item
}

// Lookup returns the stored item or nil.
func (d *Dynamo) Lookup(table, pk string) Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table(table)[pk]
}

func (d *Dynamo) primaryKey(table string, item Item) (string, error) {
	attr, ok := d.Keys[table]
	if !ok {
		return "", fmt.Errorf("awstest: unknown table %q", table)
	}
	v, ok := item[attr].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("awstest: item of %q has no %s", table, attr)
	}
	return v.Value, nil
}

func (d *Dynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PutCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	pk, err := d.primaryKey(*in.TableName, in.Item)
	if err != nil {
		return nil, err
	}
	t := d.table(*in.TableName)
	if !conditionHolds(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t[pk]) {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("put condition failed")}
	}
	t[pk] = copyItem(in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (d *Dynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.GetCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	pk, err := d.primaryKey(*in.TableName, in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := d.table(*in.TableName)[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (d *Dynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	pk, err := d.primaryKey(*in.TableName, in.Key)
	if err != nil {
		return nil, err
	}
	t := d.table(*in.TableName)
	current := t[pk]
	if !conditionHolds(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, current) {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("update condition failed")}
	}

	item := copyItem(current)
	if item == nil {
		item = copyItem(in.Key)
	}
	if in.UpdateExpression != nil {
		if err := applySet(*in.UpdateExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, item); err != nil {
			return nil, err
		}
	}
	t[pk] = item
	return &dyn.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (d *Dynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.TransactCalls++
	if d.Err != nil {
		return nil, d.Err
	}

	for _, it := range in.TransactItems {
		p := it.Put
		if p == nil {
			return nil, errors.New("awstest: only Put is supported in transactions")
		}
		pk, err := d.primaryKey(*p.TableName, p.Item)
		if err != nil {
			return nil, err
		}
		if !conditionHolds(p.ConditionExpression, p.ExpressionAttributeNames, p.ExpressionAttributeValues, d.table(*p.TableName)[pk]) {
			return nil, &types.TransactionCanceledException{Message: strPtr("transaction canceled")}
		}
	}
	for _, it := range in.TransactItems {
		pk, _ := d.primaryKey(*it.Put.TableName, it.Put.Item)
		d.table(*it.Put.TableName)[pk] = copyItem(it.Put.Item)
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func conditionHolds(expr *string, names map[string]string, values map[string]types.AttributeValue, current Item) bool {
	if expr == nil || *expr == "" {
		return true
	}
	e := strings.TrimSpace(*expr)
	switch {
	case strings.HasPrefix(e, "attribute_not_exists("):
		return current == nil
	case strings.HasPrefix(e, "attribute_exists("):
		return current != nil
	}

	lhs, rhs, ok := strings.Cut(e, "=")
	if !ok || current == nil {
		return false
	}
	attr := resolveName(strings.TrimSpace(lhs), names)
	want, ok := values[strings.TrimSpace(rhs)].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	got, ok := current[attr].(*types.AttributeValueMemberS)
	return ok && got.Value == want.Value
}

func applySet(expr string, names map[string]string, values map[string]types.AttributeValue, item Item) error {
	body, ok := strings.CutPrefix(strings.TrimSpace(expr), "SET ")
	if !ok {
		return fmt.Errorf("awstest: unsupported update expression %q", expr)
	}
	for _, assignment := range splitTopLevel(body) {
		lhs, rhs, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("awstest: bad assignment %q", assignment)
		}
		attr := resolveName(strings.TrimSpace(lhs), names)
		rhs = strings.TrimSpace(rhs)

		if strings.HasPrefix(rhs, "if_not_exists(") {
			// if_not_exists(attr, :zero) + :inc
			inner, inc, _ := strings.Cut(rhs, "+")
			inner = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(inner), "if_not_exists("), ")")
			_, zero, _ := strings.Cut(inner, ",")
			base := number(values[strings.TrimSpace(zero)])
			if cur, ok := item[attr]; ok {
				base = number(cur)
			}
			sum := base + number(values[strings.TrimSpace(inc)])
			item[attr] = &types.AttributeValueMemberN{Value: strconv.Itoa(sum)}
			continue
		}

		v, ok := values[rhs]
		if !ok {
			return fmt.Errorf("awstest: missing value %s", rhs)
		}
		item[attr] = v
	}
	return nil
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func number(v types.AttributeValue) int {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	i, _ := strconv.Atoi(n.Value)
	return i
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func copyItem(item Item) Item {
	if item == nil {
		return nil
	}
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func strPtr(s string) *string { return &s }

// SQS records sent messages.
type SQS struct {
	mu       sync.Mutex
	Messages []*sqs.SendMessageInput
	Err      error
}

func (s *SQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Messages = append(s.Messages, in)
	return &sqs.SendMessageOutput{MessageId: strPtr(strconv.Itoa(len(s.Messages)))}, nil
}

// CloudWatch records published metric data.
type CloudWatch struct {
	mu     sync.Mutex
	Inputs []*cloudwatch.PutMetricDataInput
	Err    error
}

func (c *CloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Inputs = append(c.Inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Outcomes lists the Outcome dimension of every recorded datum.
func (c *CloudWatch) Outcomes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, in := range c.Inputs {
		for _, d := range in.MetricData {
			for _, dim := range d.Dimensions {
				if dim.Name != nil && *dim.Name == "Outcome" && dim.Value != nil {
					out = append(out, *dim.Value)
				}
			}
		}
	}
	return out
}
