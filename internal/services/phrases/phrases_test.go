package phrases

import (
	"strings"
	"testing"
)

func TestTeach(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		status TeachStatus
		q, a   string
	}{
		{"simple", "учись изида -> привет", TeachLearned, "изида", "привет"},
		{"keyword case", "УЧИСЬ Как тебя зовут -> Изида", TeachLearned, "Как тебя зовут", "Изида"},
		{"no spaces around arrow", "учись кто ты->бот", TeachLearned, "кто ты", "бот"},
		{"multi-line answer", "учись стих ->\nпервая строка\nвторая строка", TeachLearned, "стих", "первая строка\nвторая строка"},
		{"no arrow", "учись просто текст", TeachFormatError, "", ""},
		{"keyword only", "учись", TeachFormatError, "", ""},
		{"short question", "учись а -> ответ", TeachTooShort, "а", "ответ"},
		{"short answer", "учись вопрос -> б", TeachTooShort, "вопрос", "б"},
		{"long question", "учись " + strings.Repeat("я", 101) + " -> ответ", TeachTooLong, strings.Repeat("я", 101), "ответ"},
		{"long answer", "учись вопрос -> " + strings.Repeat("я", 201), TeachTooLong, "вопрос", strings.Repeat("я", 201)},
		{"max lengths", "учись " + strings.Repeat("я", 100) + " -> " + strings.Repeat("ю", 200), TeachLearned, strings.Repeat("я", 100), strings.Repeat("ю", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			res := s.Teach(tt.text)
			if res.Status != tt.status {
				t.Fatalf("status: got %v, want %v", res.Status, tt.status)
			}
			if res.Question != tt.q || res.Answer != tt.a {
				t.Errorf("parsed (%q, %q), want (%q, %q)", res.Question, res.Answer, tt.q, tt.a)
			}
			learned := s.Answers() > 0
			if learned != (tt.status == TeachLearned) {
				t.Errorf("store mutated=%v for status %v", learned, tt.status)
			}
		})
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	s := NewStore()
	s.Teach("учись Как Дела -> отлично")
	s.Teach("учись как дела -> нормально")

	answers, ok := s.Lookup("  КАК ДЕЛА ")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if len(answers) != 2 || answers[0] != "отлично" || answers[1] != "нормально" {
		t.Errorf("answers: got %v", answers)
	}
	if s.Questions() != 1 {
		t.Errorf("questions: got %d, want 1", s.Questions())
	}
}

func TestIsDirective(t *testing.T) {
	if !IsDirective("  Учись что -> это") {
		t.Error("expected directive")
	}
	if IsDirective("привет учись") {
		t.Error("keyword must lead the message")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := NewStore()
	s.Add("Вопрос", "ответ")
	snap := s.Snapshot()
	snap["вопрос"][0] = "changed"

	if got, _ := s.Lookup("вопрос"); got[0] != "ответ" {
		t.Fatalf("snapshot aliases store: %v", got)
	}

	other := NewStore()
	other.Restore(map[string][]string{"ВОПРОС": {"да"}, "": {"пусто"}, "пустой": {""}})
	if other.Questions() != 1 {
		t.Fatalf("questions: got %d, want 1", other.Questions())
	}
	if got, ok := other.Lookup("вопрос"); !ok || got[0] != "да" {
		t.Errorf("restored lookup: %v %v", got, ok)
	}
}
