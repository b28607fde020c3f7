// Package shopify implements the commerce adapter against the Shopify
// Storefront GraphQL API.
//
// Every operation is a POST of {query, variables} to a single endpoint,
// authenticated with a public storefront access token. Responses are decoded
// into the explicit wire types below, then transformed to model types.
package shopify

import "encoding/json"

// === GraphQL Envelope ===

// graphQLRequest is the body of every call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the envelope of every response. Data is decoded into
// the operation's own result type once Errors is known to be empty.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// graphQLError is one entry of the top-level errors array.
type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// errorBody is returned with non-2xx statuses. Shopify sends errors either
// as a plain string or as a GraphQL-style array, so it stays raw.
type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

// === Shared Types ===

// moneyV2 is Shopify's MoneyV2; amount is a decimal string.
type moneyV2 struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type imageNode struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// === Catalog Types ===

type productNode struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Images      struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Options []struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	} `json:"options"`
	Variants struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type variantNode struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Price            moneyV2    `json:"price"`
	AvailableForSale bool       `json:"availableForSale"`
	Image            *imageNode `json:"image"`
	SelectedOptions  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

type productConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node productNode `json:"node"`
	} `json:"edges"`
}

type collectionNode struct {
	ID       string            `json:"id"`
	Handle   string            `json:"handle"`
	Title    string            `json:"title"`
	Products productConnection `json:"products"`
}

// === Cart Types ===

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount moneyV2 `json:"subtotalAmount"`
		TotalAmount    moneyV2 `json:"totalAmount"`
	} `json:"cost"`
	Lines struct {
		Edges []struct {
			Node cartLineNode `json:"node"`
		} `json:"edges"`
	} `json:"lines"`
}

type cartLineNode struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Cost     struct {
		TotalAmount moneyV2 `json:"totalAmount"`
	} `json:"cost"`
	Merchandise struct {
		ID      string     `json:"id"`
		Title   string     `json:"title"`
		Price   moneyV2    `json:"price"`
		Image   *imageNode `json:"image"`
		Product struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Handle string `json:"handle"`
		} `json:"product"`
	} `json:"merchandise"`
}

// userError is a field-level error reported by a cart mutation.
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// cartPayload is the tagged result of every cart mutation: either a cart or
// a non-empty list of user errors.
type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

// === Operation Results ===

type cartQueryData struct {
	Cart *cartNode `json:"cart"`
}

type productQueryData struct {
	Product *productNode `json:"product"`
}

type productsQueryData struct {
	Products productConnection `json:"products"`
}

type collectionQueryData struct {
	Collection *collectionNode `json:"collection"`
}

type cartCreateData struct {
	CartCreate cartPayload `json:"cartCreate"`
}

type cartLinesAddData struct {
	CartLinesAdd cartPayload `json:"cartLinesAdd"`
}

type cartLinesUpdateData struct {
	CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
}

type cartLinesRemoveData struct {
	CartLinesRemove cartPayload `json:"cartLinesRemove"`
}
