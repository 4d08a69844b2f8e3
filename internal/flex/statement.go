package flex

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/guttosm/flexledger/internal/domain/models"
)

// Record is one trade row exactly as reported upstream. Every attribute is kept as raw
// text; which of them carries the price and the open/close marker depends on the schema
// (see models.SchemaKind) and is resolved by the normalizer.
type Record struct {
	Symbol             string `xml:"symbol,attr"`
	Quantity           string `xml:"quantity,attr"`
	Price              string `xml:"price,attr"`
	TradePrice         string `xml:"tradePrice,attr"`
	DateTime           string `xml:"dateTime,attr"`
	Code               string `xml:"code,attr"`
	OpenCloseIndicator string `xml:"openCloseIndicator,attr"`
	AssetCategory      string `xml:"assetCategory,attr"`
	BuySell            string `xml:"buySell,attr"`
}

// sendResponse is the envelope returned by SendRequest, and by GetStatement on failure.
type sendResponse struct {
	XMLName       xml.Name `xml:"FlexStatementResponse"`
	Status        string   `xml:"Status"`
	ReferenceCode string   `xml:"ReferenceCode"`
	ErrorCode     string   `xml:"ErrorCode"`
	ErrorMessage  string   `xml:"ErrorMessage"`
}

type queryResponse struct {
	XMLName    xml.Name `xml:"FlexQueryResponse"`
	Statements *struct {
		Statement *statement `xml:"FlexStatement"`
	} `xml:"FlexStatements"`
}

type statement struct {
	Trades *struct {
		Rows []Record `xml:"Trade"`
	} `xml:"Trades"`
	TradeConfirms *struct {
		Rows []Record `xml:"TradeConfirm"`
	} `xml:"TradeConfirms"`
}

// parseSendResponse extracts the reference code from a SendRequest body.
func parseSendResponse(body []byte) (string, error) {
	var resp sendResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode send response: %w", err)
	}
	if strings.EqualFold(resp.Status, "Fail") {
		return "", statementFailure(resp)
	}
	code := strings.TrimSpace(resp.ReferenceCode)
	if code == "" {
		return "", ErrNoReferenceCode
	}
	return code, nil
}

// parseStatement extracts the trade rows for the given schema from a GetStatement body.
//
// A failure envelope is reported as ErrStatementFailed; a statement without the
// schema's trades node is reported as ErrNoTradesNode. An empty trades node is not an error.
func parseStatement(body []byte, kind models.SchemaKind) ([]Record, error) {
	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode statement: %w", err)
	}
	if root.XMLName.Local == "FlexStatementResponse" {
		var resp sendResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode statement envelope: %w", err)
		}
		return nil, statementFailure(resp)
	}

	var resp queryResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode statement: %w", err)
	}
	if resp.Statements == nil || resp.Statements.Statement == nil {
		return nil, ErrNoTradesNode
	}
	st := resp.Statements.Statement

	switch kind {
	case models.SchemaConfirmation:
		if st.TradeConfirms == nil {
			return nil, ErrNoTradesNode
		}
		return st.TradeConfirms.Rows, nil
	default:
		if st.Trades == nil {
			return nil, ErrNoTradesNode
		}
		return st.Trades.Rows, nil
	}
}

func statementFailure(resp sendResponse) error {
	msg := strings.TrimSpace(resp.ErrorMessage)
	if msg == "" {
		msg = "Unknown error"
	}
	return &StatementError{Code: strings.TrimSpace(resp.ErrorCode), Message: msg}
}
