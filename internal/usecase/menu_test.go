package usecase_test

import (
	"errors"
	"strings"
	"testing"

	"channel-signature-bot/internal/domain"
	"channel-signature-bot/internal/infra/memory"
	"channel-signature-bot/internal/usecase"
)

func newMenu(t *testing.T) (*usecase.Menu, *memory.ChannelRepo) {
	t.Helper()
	repo := memory.NewChannelRepo()
	return usecase.NewMenu(repo, memory.NewSessionRepo(), nil, nil), repo
}

func TestParseChannelInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantID   string
		wantName string
		wantErr  bool
	}{
		{in: "@abc", wantID: "abc", wantName: "@abc"},
		{in: "  @news \n", wantID: "news", wantName: "@news"},
		{in: "@MyNews", wantID: "mynews", wantName: "@MyNews"},
		{in: "123", wantID: "123", wantName: "Channel 123"},
		{in: "-1001234567890", wantID: "-1001234567890", wantName: "Channel -1001234567890"},
		{in: "abc", wantErr: true},
		{in: "@", wantErr: true},
		{in: "@two words", wantErr: true},
		{in: "12a", wantErr: true},
		{in: "-", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			ch, err := usecase.ParseChannelInput(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidChannelInput) {
					t.Fatalf("err = %v, want ErrInvalidChannelInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ch.ID != tt.wantID || ch.Name != tt.wantName {
				t.Errorf("got %+v, want id=%q name=%q", ch, tt.wantID, tt.wantName)
			}
		})
	}
}

func TestMenu_StartKeyboard(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	r := m.Start()
	if r.Text != usecase.TextMainMenu || r.Edit {
		t.Fatalf("Start = %+v", r)
	}
	var data []string
	for _, row := range r.Keyboard {
		for _, b := range row {
			data = append(data, b.Data)
		}
	}
	want := []string{usecase.CbAddChannel, usecase.CbRemoveChannel, usecase.CbListChannels}
	if strings.Join(data, ",") != strings.Join(want, ",") {
		t.Errorf("buttons = %v, want %v", data, want)
	}
}

func TestMenu_AddFlow(t *testing.T) {
	t.Parallel()

	m, repo := newMenu(t)

	if r := m.Callback(1, usecase.CbAddChannel); r.Text != usecase.TextAddPrompt || !r.Edit {
		t.Fatalf("add prompt = %+v", r)
	}
	if r := m.Text(1, "@news"); r.Text != "✅ @news added!" {
		t.Fatalf("add reply = %q", r.Text)
	}
	if ch, ok := repo.Get("news"); !ok || ch.Name != "@news" {
		t.Fatalf("registry entry = %+v, %v", ch, ok)
	}

	// The marker is single-use.
	if r := m.Text(1, "@other"); r.Text != usecase.TextUseStart {
		t.Errorf("second text = %q, want hint", r.Text)
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d, want 1", repo.Len())
	}
}

func TestMenu_AddNumeric(t *testing.T) {
	t.Parallel()

	m, repo := newMenu(t)
	m.Callback(7, usecase.CbAddChannel)
	if r := m.Text(7, "123"); r.Text != "✅ ID 123 added!" {
		t.Fatalf("reply = %q", r.Text)
	}
	ch, ok := repo.Get("123")
	if !ok || !strings.Contains(ch.Name, "123") {
		t.Errorf("entry = %+v, %v", ch, ok)
	}
}

func TestMenu_AddInvalidClearsFlag(t *testing.T) {
	t.Parallel()

	m, repo := newMenu(t)
	m.Callback(1, usecase.CbAddChannel)
	if r := m.Text(1, "abc"); r.Text != usecase.TextBadFormat {
		t.Fatalf("reply = %q, want format error", r.Text)
	}
	if repo.Len() != 0 {
		t.Errorf("registry mutated by invalid input")
	}
	if r := m.Text(1, "@abc"); r.Text != usecase.TextUseStart {
		t.Errorf("flag survived invalid input: %q", r.Text)
	}
}

func TestMenu_SessionsArePerUser(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	m.Callback(1, usecase.CbAddChannel)
	if r := m.Text(2, "@news"); r.Text != usecase.TextUseStart {
		t.Errorf("user 2 consumed user 1's session: %q", r.Text)
	}
	if r := m.Text(1, "@news"); r.Text != "✅ @news added!" {
		t.Errorf("user 1 reply = %q", r.Text)
	}
}

func TestMenu_IdleTextGetsHint(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	if r := m.Text(1, "hello"); r.Text != usecase.TextUseStart {
		t.Errorf("reply = %q", r.Text)
	}
}

func TestMenu_EmptyStates(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	for _, cb := range []string{usecase.CbRemoveChannel, usecase.CbListChannels} {
		r := m.Callback(1, cb)
		if r.Text != usecase.TextNoChannels || !r.Edit {
			t.Errorf("%s = %+v, want empty-state edit", cb, r)
		}
	}
}

func TestMenu_AddThenList(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	m.Callback(1, usecase.CbAddChannel)
	m.Text(1, "@news")

	r := m.Callback(1, usecase.CbListChannels)
	lines := 0
	for _, l := range strings.Split(r.Text, "\n") {
		if strings.Contains(l, "@news") {
			lines++
		}
	}
	if lines != 1 {
		t.Errorf("list mentions @news on %d lines, want 1:\n%s", lines, r.Text)
	}
	if !strings.Contains(r.Text, "(ID: news)") {
		t.Errorf("list lacks id:\n%s", r.Text)
	}
}

func TestMenu_RemoveFlow(t *testing.T) {
	t.Parallel()

	m, repo := newMenu(t)
	_ = repo.Add("news", "@news")
	_ = repo.Add("123", "Channel 123")

	r := m.Callback(1, usecase.CbRemoveChannel)
	if r.Text != usecase.TextPickToRemove {
		t.Fatalf("remove menu = %q", r.Text)
	}
	// Two channel rows plus the back row.
	if len(r.Keyboard) != 3 || r.Keyboard[0][0].Data != "remove:news" || r.Keyboard[2][0].Data != usecase.CbBackToMenu {
		t.Fatalf("keyboard = %+v", r.Keyboard)
	}

	if r := m.Callback(1, "remove:news"); r.Text != usecase.TextRemoved {
		t.Errorf("remove reply = %q", r.Text)
	}
	if r := m.Callback(1, "remove:999"); r.Text != usecase.TextNotFound {
		t.Errorf("remove unknown reply = %q", r.Text)
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d, want 1", repo.Len())
	}
}

func TestMenu_RemoveTokenDoesNotCollideWithMenuToken(t *testing.T) {
	t.Parallel()

	m, repo := newMenu(t)
	_ = repo.Add("channel", "@channel")

	if r := m.Callback(1, usecase.CbRemoveChannel); r.Text != usecase.TextPickToRemove {
		t.Fatalf("remove menu = %q", r.Text)
	}
	if repo.Len() != 1 {
		t.Fatal("opening the remove menu removed a channel")
	}
}

func TestMenu_BackAndUnknown(t *testing.T) {
	t.Parallel()

	m, _ := newMenu(t)
	if r := m.Callback(1, usecase.CbBackToMenu); r.Text != usecase.TextMainMenu || !r.Edit {
		t.Errorf("back = %+v", r)
	}
	if r := m.Callback(1, "bogus"); !r.Empty() {
		t.Errorf("unknown callback = %+v, want empty", r)
	}
	// Without stats configured the stats token is unknown.
	if r := m.Callback(1, usecase.CbStats); !r.Empty() {
		t.Errorf("stats without repo = %+v, want empty", r)
	}
}

type failingRepo struct{ *memory.ChannelRepo }

func (failingRepo) Add(string, string) error    { return errors.New("disk full") }
func (failingRepo) Remove(string) (bool, error) { return false, errors.New("disk full") }

func TestMenu_StoreErrorsBecomeMessages(t *testing.T) {
	t.Parallel()

	m := usecase.NewMenu(failingRepo{memory.NewChannelRepo()}, memory.NewSessionRepo(), nil, nil)
	m.Callback(1, usecase.CbAddChannel)
	if r := m.Text(1, "@news"); r.Text != usecase.TextSaveFailed {
		t.Errorf("add reply = %q", r.Text)
	}
	if r := m.Callback(1, "remove:news"); r.Text != usecase.TextSaveFailed {
		t.Errorf("remove reply = %q", r.Text)
	}
}
