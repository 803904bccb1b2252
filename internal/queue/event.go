// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into the activity log.
package queue

import (
    "fmt"
    "strings"
)

// ActivityQueueName is the durable queue shared by publisher and consumer.
const ActivityQueueName = "filmio.activity"

// Activity kinds.
const (
    KindMemberRegistered = "member.registered"
    KindMemberSignedIn   = "member.signed_in"
    KindJoinRequested    = "screening.join_requested"
    KindRatingSaved      = "rating.saved"
    KindAdminChange      = "admin.change"
)

// ActivityEvent is published after a successful state change.  It carries
// enough for the activity log to be readable without querying the database.
type ActivityEvent struct {
    Kind       string `json:"kind"`
    MemberID   uint64 `json:"member_id"`
    MemberName string `json:"member_name,omitempty"`
    SubjectID  uint64 `json:"subject_id,omitempty"`
    Subject    string `json:"subject,omitempty"`
    Detail     string `json:"detail,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// Line renders the event as a single log line.
func (ev ActivityEvent) Line() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | member_id=%d", ev.OccurredAt, ev.Kind, ev.MemberID)
    if ev.MemberName != "" {
        fmt.Fprintf(&b, " | member=%q", ev.MemberName)
    }
    if ev.SubjectID != 0 {
        fmt.Fprintf(&b, " | subject_id=%d", ev.SubjectID)
    }
    if ev.Subject != "" {
        fmt.Fprintf(&b, " | subject=%q", ev.Subject)
    }
    if ev.Detail != "" {
        fmt.Fprintf(&b, " | %s", ev.Detail)
    }
    b.WriteByte('\n')
    return b.String()
}
