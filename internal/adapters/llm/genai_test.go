package llm

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeModels struct {
	gotModel  string
	gotText   string
	gotConfig *genai.GenerateContentConfig
	reply     string
	err       error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotText = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestGenAIOracle_Rank(t *testing.T) {
	roster := []model.DesignerProfile{{ID: "d-1", Name: "Lina Haddad", Role: "Motion Designer"}}
	prompt := scoring.BuildPrompt("Animated logo sting", roster)

	Convey("Given a model that answers with JSON", t, func() {
		fake := &fakeModels{reply: ` {"designers":[{"name":"Lina Haddad","score":88,"reason":"motion"}]} `}
		oracle := newOracle(fake, "")

		text, err := oracle.Rank(context.Background(), prompt)

		Convey("Then the prompt is sent with a JSON response config", func() {
			So(err, ShouldBeNil)
			So(fake.gotModel, ShouldEqual, DefaultModel)
			So(fake.gotText, ShouldContainSubstring, "Lina Haddad|Motion Designer")
			So(fake.gotConfig.ResponseMIMEType, ShouldEqual, "application/json")
			So(fake.gotConfig.SystemInstruction, ShouldNotBeNil)
			So(*fake.gotConfig.Temperature, ShouldAlmostEqual, 0.3, 0.0001)
		})

		Convey("And the reply normalizes through the scoring boundary", func() {
			out, err := scoring.Normalize(text, roster)
			So(err, ShouldBeNil)
			So(out["d-1"].Score, ShouldEqual, 88)
		})
	})

	Convey("Given a failing model", t, func() {
		oracle := newOracle(&fakeModels{err: errors.New("quota exceeded")}, "gemini-test")
		_, err := oracle.Rank(context.Background(), prompt)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "quota exceeded")
		So(oracle.Model(), ShouldEqual, "gemini-test")
	})

	Convey("Given a model that answers with nothing", t, func() {
		_, err := newOracle(&fakeModels{reply: "  "}, "").Rank(context.Background(), prompt)
		So(err, ShouldNotBeNil)
	})

	Convey("Given no API key", t, func() {
		_, err := NewGenAIOracle(context.Background(), "", "")
		So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
	})
}
