package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"
)

var (
	t0   = time.UnixMilli(1_700_000_000_000)
	host = domain.UserProfile{ID: "h1", DisplayName: "Host", Taken: true}
)

func TestCreate_Defaults(t *testing.T) {
	sp, err := Create("  Morning chat ", "coffee", host, Options{}, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sp.Title != "Morning chat" {
		t.Fatalf("title not trimmed: %q", sp.Title)
	}
	if sp.Capacity != 100 || sp.AskToJoin || sp.AskToSpeak {
		t.Fatalf("unexpected policy defaults: %+v", sp)
	}
	if sp.Duration != (15 * time.Minute).Milliseconds() {
		t.Fatalf("duration default: %d", sp.Duration)
	}
	if sp.StartedAt != t0.UnixMilli() || !sp.Active || sp.EndedAt != 0 {
		t.Fatalf("timing defaults: start=%d active=%v ended=%d", sp.StartedAt, sp.Active, sp.EndedAt)
	}
	if len(sp.Participants) != 1 || sp.Participants[0].Role != domain.RoleHost || sp.Participants[0].Muted {
		t.Fatalf("host participant: %+v", sp.Participants)
	}
	if sp.Participants[0].AvatarURL != domain.DefaultAvatarURL {
		t.Fatalf("avatar not defaulted: %q", sp.Participants[0].AvatarURL)
	}
	if sp.Host != "h1" || len(sp.Speakers) != 0 || len(sp.Listeners) != 0 {
		t.Fatalf("role lists: host=%s speakers=%v listeners=%v", sp.Host, sp.Speakers, sp.Listeners)
	}
	if sp.AskToSpeakTimestamps == nil || sp.AskToJoinQueue == nil {
		t.Fatalf("collections must be empty, not nil")
	}
	if len(sp.RemoteName) != len("remote_")+8 {
		t.Fatalf("remote name: %q", sp.RemoteName)
	}
}

func TestCreate_Options(t *testing.T) {
	start := t0.Add(time.Hour)
	sp, err := Create("t", "", host, Options{
		Capacity: 5, AskToJoin: true, AskToSpeak: true, StartTime: start, Duration: 30 * time.Minute,
	}, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sp.Capacity != 5 || !sp.AskToJoin || !sp.AskToSpeak {
		t.Fatalf("options ignored: %+v", sp)
	}
	if sp.StartedAt != start.UnixMilli() || sp.Duration != (30*time.Minute).Milliseconds() {
		t.Fatalf("timing options ignored")
	}
	if !IsScheduled(sp, t0) {
		t.Fatalf("future start must be scheduled")
	}
}

func TestCreate_Invalid(t *testing.T) {
	cases := map[string]struct {
		title string
		opts  Options
	}{
		"empty title":       {title: "  "},
		"negative capacity": {title: "x", opts: Options{Capacity: -1}},
		"negative duration": {title: "x", opts: Options{Duration: -time.Second}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Create(tc.title, "", host, tc.opts, t0); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEnd_KeepsFirstEndTime(t *testing.T) {
	sp, _ := Create("t", "", host, Options{}, t0)
	End(sp, t0.Add(time.Minute))
	if sp.Active || sp.EndedAt != t0.Add(time.Minute).UnixMilli() {
		t.Fatalf("not ended: %+v", sp)
	}
	End(sp, t0.Add(2*time.Minute))
	if sp.EndedAt != t0.Add(time.Minute).UnixMilli() {
		t.Fatalf("end time rewritten: %d", sp.EndedAt)
	}
	if !IsEnded(sp) || IsLive(sp, t0) || CanJoinNow(sp, t0) {
		t.Fatalf("ended space still joinable/live")
	}
}

func TestCanJoinNow_Window(t *testing.T) {
	sp, _ := Create("t", "", host, Options{StartTime: t0.Add(10 * time.Minute)}, t0)
	if CanJoinNow(sp, t0) {
		t.Fatalf("10 minutes ahead must not be joinable")
	}
	if !CanJoinNow(sp, t0.Add(5*time.Minute)) {
		t.Fatalf("exactly 5 minutes ahead must be joinable")
	}
	if !CanJoinNow(sp, t0.Add(20*time.Minute)) {
		t.Fatalf("started space must be joinable")
	}
}

func TestRemainingAndProgress(t *testing.T) {
	sp, _ := Create("t", "", host, Options{Duration: 10 * time.Minute}, t0)

	if got := RemainingTime(sp, t0.Add(4*time.Minute)); got != 6*time.Minute {
		t.Fatalf("remaining: %v", got)
	}
	if got := Progress(sp, t0.Add(5*time.Minute)); got != 50 {
		t.Fatalf("progress: %v", got)
	}
	if got := Progress(sp, t0.Add(-time.Minute)); got != 0 {
		t.Fatalf("progress before start must clamp to 0, got %v", got)
	}
	if got := Progress(sp, t0.Add(time.Hour)); got != 100 {
		t.Fatalf("progress after end must clamp to 100, got %v", got)
	}
	if IsExpired(sp, t0.Add(10*time.Minute)) {
		t.Fatalf("remaining 0 is not expired yet")
	}
	if !IsExpired(sp, t0.Add(10*time.Minute+time.Millisecond)) {
		t.Fatalf("expected expired")
	}
	if !ExpiresSoon(sp, t0.Add(9*time.Minute+30*time.Second), time.Minute) {
		t.Fatalf("expected expires soon")
	}
	End(sp, t0.Add(time.Hour))
	if IsExpired(sp, t0.Add(2*time.Hour)) {
		t.Fatalf("ended space is not expired")
	}
}
