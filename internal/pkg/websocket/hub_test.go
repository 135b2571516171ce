package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
)

func TestHubNotifiesListeners(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	listener := make(chan *Message, 1)
	hub.AddMessageListener(listener)

	if !hub.Broadcast(&Message{Event: EventUpdate, Table: models.TableReferralRequests, Key: "r1", Version: 2}) {
		t.Fatal("broadcast rejected by running hub")
	}

	select {
	case msg := <-listener:
		if msg.Key != "r1" || msg.Version != 2 {
			t.Fatalf("message = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("listener not notified")
	}

	hub.RemoveMessageListener(listener)
	if len(hub.messageListeners) != 0 {
		t.Fatalf("listeners = %d, want 0", len(hub.messageListeners))
	}
}

func TestSlowListenerReceivesEveryChange(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	listener := make(chan *Message)
	hub.AddMessageListener(listener)

	for v := int64(1); v <= 3; v++ {
		if !hub.Broadcast(&Message{Event: EventUpdate, Table: models.TableStudents, Key: "2024-0001", Version: v}) {
			t.Fatal("broadcast rejected by running hub")
		}
	}

	for want := int64(1); want <= 3; want++ {
		time.Sleep(10 * time.Millisecond)
		select {
		case msg := <-listener:
			if msg.Version != want {
				t.Fatalf("version = %d, want %d", msg.Version, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("change v%d dropped", want)
		}
	}
}

func TestRemovedListenerDoesNotBlockHub(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	stale := make(chan *Message)
	live := make(chan *Message, 1)
	hub.AddMessageListener(stale)
	hub.AddMessageListener(live)

	hub.Broadcast(&Message{Table: models.TableStudents, Key: "k"})
	time.Sleep(10 * time.Millisecond)
	hub.RemoveMessageListener(stale)

	select {
	case <-live:
	case <-time.After(time.Second):
		t.Fatal("hub stuck on a removed listener")
	}
}

func TestBroadcastAfterStop(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// Fill the buffer so the only ready case is done.
	hub.broadcast <- &Message{}
	if hub.Broadcast(&Message{Table: models.TableStudents}) {
		t.Fatal("broadcast accepted after stop")
	}
}

func TestSubscription(t *testing.T) {
	tests := []struct {
		name      string
		actor     models.Actor
		table     string
		owner     string
		wantOK    bool
		wantOwner string
	}{
		{"student pinned to self", models.Actor{Role: models.RoleStudent, SubjectID: "2026-0001"}, models.TableReferralRequests, "2026-0002", true, "2026-0001"},
		{"student cannot watch applications", models.Actor{Role: models.RoleStudent, SubjectID: "2026-0001"}, models.TableApplications, "", false, ""},
		{"applicant watches own application", models.Actor{Role: models.RoleApplicant, SubjectID: "app-1"}, models.TableApplications, "", true, "app-1"},
		{"staff sees everything", models.Actor{Role: models.RoleCareStaff, SubjectID: "s1"}, models.TableReferralRequests, "", true, ""},
		{"staff may filter by owner", models.Actor{Role: models.RoleCareStaff, SubjectID: "s1"}, models.TableReferralRequests, "2026-0001", true, "2026-0001"},
		{"unknown table", models.Actor{Role: models.RoleCareStaff}, "users", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, owner, ok := Subscription(tt.actor, tt.table, tt.owner)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (table != tt.table || owner != tt.wantOwner) {
				t.Fatalf("got (%q, %q), want (%q, %q)", table, owner, tt.table, tt.wantOwner)
			}
		})
	}
}

func TestClientAccepts(t *testing.T) {
	msg := &Message{Owner: "2026-0001"}
	if !(&Client{}).accepts(msg) {
		t.Fatal("unfiltered client should accept")
	}
	if !(&Client{owner: "2026-0001"}).accepts(msg) {
		t.Fatal("owner should accept own record")
	}
	if (&Client{owner: "2026-0002"}).accepts(msg) {
		t.Fatal("other owner should not accept")
	}
}
