// plan-fill-sim publishes a plan.fill.requested.v1 event straight to Kafka,
// bypassing the roster-service outbox, for exercising the planner locally.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platoonhq/rosterd/libs/events"
	"github.com/platoonhq/rosterd/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers = flag.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "comma-separated kafka brokers")
		day     = flag.String("day", time.Now().UTC().Format("2006-01-02"), "day to fill (YYYY-MM-DD)")
		mission = flag.String("mission-ids", "", "comma-separated mission ids (empty = all)")
		locked  = flag.String("locked-ids", "", "comma-separated assignment ids to keep")
	)
	flag.Parse()

	if _, err := time.Parse("2006-01-02", *day); err != nil {
		fatal("invalid day: " + *day)
	}

	planID := uuid.NewString()
	payload, err := json.Marshal(events.PlanFillRequested{
		PlanID:              planID,
		Day:                 *day,
		MissionIDs:          parseIDs(*mission),
		LockedAssignmentIDs: parseIDs(*locked),
	})
	if err != nil {
		fatal(err.Error())
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  kafkax.SplitBrokers(*brokers),
		Topic:    events.TopicPlanFillRequested,
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(planID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(planID)},
			{Key: "event_type", Value: []byte(events.TopicPlanFillRequested)},
		},
	})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("plan_id=%s day=%s\n", planID, *day)
}

func parseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			fatal("invalid id: " + part)
		}
		ids = append(ids, id)
	}
	return ids
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
