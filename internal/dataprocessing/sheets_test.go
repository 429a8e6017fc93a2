package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evalpulse/pkg/contracts/domain"
)

func TestClassifySheet(t *testing.T) {
	tests := []struct {
		name      string
		sheetName string
		wantType  domain.QuestionType
		wantIndex string
		wantOK    bool
	}{
		{
			name:      "rating scale sheet",
			sheetName: "Frage 7.3 (Antwortskala)",
			wantType:  domain.QuestionRatingScale,
			wantIndex: "7.3",
			wantOK:    true,
		},
		{
			name:      "single choice sheet",
			sheetName: "Frage 2 (Einfachauswahl)",
			wantType:  domain.QuestionSingleChoice,
			wantIndex: "2",
			wantOK:    true,
		},
		{
			name:      "open text sheet",
			sheetName: "Frage 6 (Offene Frage)",
			wantType:  domain.QuestionOpenText,
			wantIndex: "6",
			wantOK:    true,
		},
		{
			name:      "marker without index keyword",
			sheetName: "Antwortskala Übersicht",
			wantType:  domain.QuestionRatingScale,
			wantIndex: "",
			wantOK:    true,
		},
		{
			name:      "general info sheet is not question data",
			sheetName: "Allgemeine Angaben",
			wantOK:    false,
		},
		{
			name:      "unrelated sheet",
			sheetName: "Tabelle1",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, ok := ClassifySheet(tt.sheetName)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantType, class.Type)
			assert.Equal(t, tt.wantIndex, class.QuestionIndex)
		})
	}
}
