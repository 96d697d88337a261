package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBank(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "questions.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write bank: %v", err)
	}
	return path
}

func TestLoadQuestionBank(t *testing.T) {
	path := writeBank(t, `question,answer1,points1,answer2,points2,answer3,points3
Name a fruit,Banana,30,Apple,40,Cherry,20
Name a pet,Dog,50,Cat,35
`)

	bank, err := loadQuestionBank(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bank.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", bank.Len())
	}

	fruit, ok := bank.At(0)
	if !ok || fruit.Question != "Name a fruit" {
		t.Fatalf("unexpected first question: %+v", fruit)
	}

	// Answers come out sorted by descending points regardless of row order.
	want := []Answer{{Text: "Apple", Points: 40}, {Text: "Banana", Points: 30}, {Text: "Cherry", Points: 20}}
	if len(fruit.Answers) != len(want) {
		t.Fatalf("expected %d answers, got %d", len(want), len(fruit.Answers))
	}
	for i, a := range fruit.Answers {
		if a != want[i] {
			t.Fatalf("expected answers %v, got %v", want, fruit.Answers)
		}
	}
}

func TestLoadQuestionBankSkipsInvalidRows(t *testing.T) {
	path := writeBank(t, `question,answer1,points1
,Orphan,10
No valid answers,,"",
Bad points,Apple,zero
Good,Apple,40
`)

	bank, err := loadQuestionBank(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bank.Len() != 1 {
		t.Fatalf("expected only the valid row, got %d questions", bank.Len())
	}
	q, _ := bank.At(0)
	if q.Question != "Good" {
		t.Fatalf("unexpected surviving question: %+v", q)
	}
}

func TestLoadQuestionBankMissingFile(t *testing.T) {
	if _, err := loadQuestionBank(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestQuestionBankAtBounds(t *testing.T) {
	bank := &QuestionBank{questions: []Question{{Question: "Only"}}}

	if _, ok := bank.At(-1); ok {
		t.Fatalf("expected out-of-range miss for -1")
	}
	if _, ok := bank.At(1); ok {
		t.Fatalf("expected out-of-range miss for 1")
	}

	var nilBank *QuestionBank
	if nilBank.Len() != 0 {
		t.Fatalf("expected nil bank to report length 0")
	}
	if _, ok := nilBank.At(0); ok {
		t.Fatalf("expected nil bank lookup to miss")
	}
}
