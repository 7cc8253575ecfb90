package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashmod/card-services/internal/cardsvc/models"
	"github.com/flashmod/card-services/internal/cardsvc/service"
	"github.com/flashmod/card-services/internal/cardsvc/store"
)

const (
	mod1URL = "http://supabase.test/rest/v1/mod1_cards"
	mod2URL = "http://supabase.test/rest/v1/mod2_cards"
)

func newTestService(t *testing.T, tables map[string]string) *service.CardService {
	t.Helper()
	s := store.NewSupabaseStore("http://supabase.test", "test-key")
	httpmock.ActivateNonDefault(s.Client().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return service.NewCardService(s, tables, "testdata")
}

func mod1Service(t *testing.T) *service.CardService {
	return newTestService(t, map[string]string{"mod1": "mod1_cards", "mod2": "mod2_cards"})
}

// echoInsertResponder answers a POST the way PostgREST does with
// return=representation: the inserted rows come back as the body.
func echoInsertResponder(req *http.Request) (*http.Response, error) {
	var rows []models.Row
	if err := json.NewDecoder(req.Body).Decode(&rows); err != nil {
		return nil, err
	}
	return httpmock.NewJsonResponse(http.StatusCreated, rows)
}

func TestListReshapesRows(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("GET", mod1URL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []models.Row{
			{CardID: "mod1_card_1", Data: map[string]interface{}{"title": "ubiquitous"}},
			{CardID: "mod1_card_2", Data: map[string]interface{}{"title": "ephemeral"}},
		}))

	cards, err := s.List(context.Background(), "mod1")

	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "mod1_card_1", cards[0]["cardid"])
	assert.Equal(t, "ubiquitous", cards[0]["title"])
	assert.NotContains(t, cards[0], "data")
}

func TestListEmptyTableIsNotAnError(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("GET", mod1URL,
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	cards, err := s.List(context.Background(), "mod1")

	require.NoError(t, err)
	require.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestListUnknownModule(t *testing.T) {
	s := mod1Service(t)

	_, err := s.List(context.Background(), "mod99")

	assert.ErrorIs(t, err, service.ErrUnknownModule)
}

func TestCreateGeneratesNextID(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("GET", mod1URL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []models.Row{
			{CardID: "mod1_card_1"},
			{CardID: "mod1_card_3"},
			{CardID: "mod1_card_x"},
			{CardID: "other_card_9"},
		}))
	httpmock.RegisterResponder("POST", mod1URL, echoInsertResponder)

	card, err := s.Create(context.Background(), "mod1", models.Card{"title": "new word"})

	require.NoError(t, err)
	assert.Equal(t, "mod1_card_4", card["cardid"])
	assert.Equal(t, "new word", card["title"])
}

func TestCreateFirstIDStartsAtOne(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("GET", mod1URL,
		httpmock.NewStringResponder(http.StatusOK, `[]`))
	httpmock.RegisterResponder("POST", mod1URL, echoInsertResponder)

	card, err := s.Create(context.Background(), "mod1", models.Card{"title": "first"})

	require.NoError(t, err)
	assert.Equal(t, "mod1_card_1", card["cardid"])
}

func TestCreateKeepsExplicitID(t *testing.T) {
	s := mod1Service(t)
	// no GET responder: an explicit id must not trigger the id scan
	httpmock.RegisterResponder("POST", mod1URL, func(req *http.Request) (*http.Response, error) {
		var rows []models.Row
		if err := json.NewDecoder(req.Body).Decode(&rows); err != nil {
			return nil, err
		}
		require.Len(t, rows, 1)
		assert.Equal(t, "mod1_custom", rows[0].CardID)
		assert.NotContains(t, rows[0].Data, "cardid")
		return httpmock.NewJsonResponse(http.StatusCreated, rows)
	})

	card, err := s.Create(context.Background(), "mod1", models.Card{"cardid": "mod1_custom", "title": "t"})

	require.NoError(t, err)
	assert.Equal(t, "mod1_custom", card["cardid"])
}

func TestCreateEmptyInsertResultFails(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("POST", mod1URL,
		httpmock.NewStringResponder(http.StatusCreated, `[]`))

	_, err := s.Create(context.Background(), "mod1", models.Card{"cardid": "mod1_card_5"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned no rows")
}

func TestUpdateStripsCardIDAndReplacesData(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("PATCH", mod1URL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "eq.mod1_card_2", req.URL.Query().Get("cardid"))

		var body map[string]map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		assert.NotContains(t, body["data"], "cardid")
		assert.Equal(t, "renamed", body["data"]["title"])
		return httpmock.NewJsonResponse(http.StatusOK, []models.Row{
			{CardID: "mod1_card_2", Data: body["data"]},
		})
	})

	card, err := s.Update(context.Background(), "mod1", "mod1_card_2",
		models.Card{"cardid": "evil_new_id", "title": "renamed"})

	require.NoError(t, err)
	assert.Equal(t, "mod1_card_2", card["cardid"])
	assert.Equal(t, "renamed", card["title"])
}

func TestUpdateNotFound(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("PATCH", mod1URL,
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	_, err := s.Update(context.Background(), "mod1", "mod1_card_404", models.Card{"title": "x"})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteNonexistentStillSucceeds(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("DELETE", mod1URL,
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	err := s.Delete(context.Background(), "mod1", "mod1_card_404")

	require.NoError(t, err)
}

func TestResetWipesAndReloadsFixture(t *testing.T) {
	s := mod1Service(t)

	var inserted []models.Row
	httpmock.RegisterResponder("DELETE", mod1URL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "not.is.null", req.URL.Query().Get("cardid"))
		return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
	})
	httpmock.RegisterResponder("POST", mod1URL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "cardid", req.URL.Query().Get("on_conflict"))
		if err := json.NewDecoder(req.Body).Decode(&inserted); err != nil {
			return nil, err
		}
		return httpmock.NewJsonResponse(http.StatusCreated, inserted)
	})

	count, err := s.Reset(context.Background(), "mod1")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, inserted, 2)
	assert.Equal(t, "mod1_card_1", inserted[0].CardID)
	assert.Equal(t, "mod1_card_2", inserted[1].CardID)
	assert.NotContains(t, inserted[0].Data, "cardid")
}

func TestResetMissingFixtureFails(t *testing.T) {
	s := mod1Service(t)
	// mod2 has no fixture in testdata; the table must stay untouched

	_, err := s.Reset(context.Background(), "mod2")

	require.Error(t, err)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestImportReplacesTableContents(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("DELETE", mod1URL,
		httpmock.NewStringResponder(http.StatusNoContent, ""))
	httpmock.RegisterResponder("POST", mod1URL, echoInsertResponder)

	count, err := s.Import(context.Background(), "mod1", []models.Card{
		{"cardid": "mod1_card_1", "title": "a"},
		{"cardid": "mod1_card_2", "title": "b"},
		{"cardid": "mod1_card_3", "title": "c"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count)

	calls := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, calls["DELETE "+mod1URL])
	assert.Equal(t, 1, calls["POST "+mod1URL])
}

func TestImportEmptyArrayJustWipes(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("DELETE", mod1URL,
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	count, err := s.Import(context.Background(), "mod1", []models.Card{})

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRemoteErrorIsSurfaced(t *testing.T) {
	s := mod1Service(t)
	httpmock.RegisterResponder("GET", mod1URL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := s.List(context.Background(), "mod1")

	var apiErr *store.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
