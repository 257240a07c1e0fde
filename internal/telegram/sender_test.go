package telegram

import (
	"testing"
	"time"
)

func TestBotClientCache(t *testing.T) {
	s := NewBotSender(30, time.Second)

	b1, err := s.bot("111:token")
	if err != nil {
		t.Fatalf("bot() error = %v", err)
	}
	b2, err := s.bot("111:token")
	if err != nil {
		t.Fatalf("bot() second call error = %v", err)
	}
	if b1 != b2 {
		t.Error("same credential produced distinct bot clients")
	}

	other, err := s.bot("222:token")
	if err != nil {
		t.Fatalf("bot() error = %v", err)
	}
	if other == b1 {
		t.Error("distinct credentials share a bot client")
	}
}

func TestForgetDropsCachedClient(t *testing.T) {
	s := NewBotSender(30, time.Second)

	b1, err := s.bot("111:token")
	if err != nil {
		t.Fatalf("bot() error = %v", err)
	}
	s.Forget("111:token")

	b2, err := s.bot("111:token")
	if err != nil {
		t.Fatalf("bot() after Forget error = %v", err)
	}
	if b1 == b2 {
		t.Error("Forget did not evict the cached client")
	}
}

func TestSendOptions(t *testing.T) {
	opts := sendOptions(nil)
	if opts.ReplyMarkup != nil {
		t.Error("empty keyboard produced a reply markup")
	}

	keyboard := Keyboard{
		{{Text: "Buy", URL: "https://shop.example"}, {Text: "Info", Data: "/info"}},
		{{Text: "More", Data: "/more"}},
	}
	opts = sendOptions(keyboard)
	if opts.ReplyMarkup == nil {
		t.Fatal("keyboard produced no reply markup")
	}
	rows := opts.ReplyMarkup.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("row layout = %v", rows)
	}
	if rows[0][0].URL != "https://shop.example" || rows[0][0].Text != "Buy" {
		t.Errorf("link button = %+v", rows[0][0])
	}
	if rows[0][1].Data != "/info" {
		t.Errorf("callback button = %+v", rows[0][1])
	}
}
