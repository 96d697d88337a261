package main

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// QuestionBank holds the CSV-sourced question list served to host
// clients. The bank is optional: hosts can always supply their own
// questions over the wire.
type QuestionBank struct {
	questions []Question
}

func (qb *QuestionBank) Len() int {
	if qb == nil {
		return 0
	}
	return len(qb.questions)
}

func (qb *QuestionBank) At(index int) (Question, bool) {
	if qb == nil || index < 0 || index >= len(qb.questions) {
		return Question{}, false
	}
	return qb.questions[index], true
}

// loadQuestionBank reads rows of the form
// question,answer1,points1,answer2,points2,... with a header row.
// Rows without a question or any valid answer pair are skipped.
func loadQuestionBank(path string) (*QuestionBank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	bank := &QuestionBank{}

	for i, record := range records {
		if i == 0 {
			// Header row.
			continue
		}
		if len(record) < 3 || record[0] == "" {
			continue
		}

		question := Question{Question: record[0]}

		for j := 1; j+1 < len(record); j += 2 {
			text := record[j]
			if text == "" {
				continue
			}
			points, err := strconv.Atoi(record[j+1])
			if err != nil || points <= 0 {
				continue
			}
			question.Answers = append(question.Answers, Answer{
				Text:   text,
				Points: points,
			})
		}

		if len(question.Answers) == 0 {
			continue
		}

		sort.SliceStable(question.Answers, func(a, b int) bool {
			return question.Answers[a].Points > question.Answers[b].Points
		})

		bank.questions = append(bank.questions, question)
	}

	return bank, nil
}

func serveQuestions(cfg *Config, bank *QuestionBank, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		questions := bank.questions
		if questions == nil {
			questions = []Question{}
		}

		if err := json.NewEncoder(w).Encode(questions); err != nil {
			errs <- err

			return
		}
	}
}
