package models

// Row is the storage shape of a card in the remote table: the key column
// plus an opaque JSON payload. The cardid is never duplicated inside Data.
type Row struct {
	CardID string                 `json:"cardid"`
	Data   map[string]interface{} `json:"data"`
}

// Card is the flat client-facing shape: the payload fields with the
// cardid merged back in.
type Card map[string]interface{}

// NewRow lifts a flat card into its storage shape. A "cardid" field in the
// card, if any, is promoted to the key column and removed from the payload.
func NewRow(id string, card Card) Row {
	data := make(map[string]interface{}, len(card))
	for k, v := range card {
		if k == "cardid" {
			continue
		}
		data[k] = v
	}
	return Row{CardID: id, Data: data}
}

// NewRows lifts a batch of flat cards, taking each card's id from its own
// "cardid" field.
func NewRows(cards []Card) []Row {
	rows := make([]Row, 0, len(cards))
	for _, card := range cards {
		id, _ := card["cardid"].(string)
		rows = append(rows, NewRow(id, card))
	}
	return rows
}

// Flatten merges the payload with the key column. The key column wins over
// any stray "cardid" inside the payload.
func (r Row) Flatten() Card {
	card := make(Card, len(r.Data)+1)
	for k, v := range r.Data {
		card[k] = v
	}
	card["cardid"] = r.CardID
	return card
}

// FlattenAll reshapes remote rows into client cards, skipping rows without
// a cardid. Always returns a non-nil slice so an empty table serializes as
// an empty JSON array.
func FlattenAll(rows []Row) []Card {
	cards := make([]Card, 0, len(rows))
	for _, row := range rows {
		if row.CardID == "" {
			continue
		}
		cards = append(cards, row.Flatten())
	}
	return cards
}
