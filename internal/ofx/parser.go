// Package ofx imports OFX and QFX bank and credit-card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exporters drop the closing bracket of bare opening tags
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, fmt.Errorf("%w: empty OFX file", common.ErrUnsupportedFormat)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %v", common.ErrUnsupportedFormat, err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its transactions in date
// order with running balances filled in.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			ledger, _ := stmt.BalAmt.Float64()
			transactions = append(transactions,
				p.processStatement(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), ledger)...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			ledger, _ := stmt.BalAmt.Float64()
			transactions = append(transactions,
				p.processStatement(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), ledger)...)
		}
	}

	if bankStmts+ccStmts == 0 {
		return nil, fmt.Errorf("%w: no bank or credit card statements", common.ErrUnsupportedFormat)
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// processStatement converts one statement's transactions and derives each
// running balance by walking backwards from the ledger balance.
func (p *Parser) processStatement(list *ofxgo.TransactionList, accountID string, ledger float64) []model.Transaction {
	if list == nil || len(list.Transactions) == 0 {
		return nil
	}

	transactions := make([]model.Transaction, 0, len(list.Transactions))
	signed := make([]float64, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		tx, amount := p.convertTransaction(ofxTx, accountID)
		transactions = append(transactions, tx)
		signed = append(signed, amount)
	}

	order := make([]int, len(transactions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return transactions[order[a]].Date.Before(transactions[order[b]].Date)
	})

	balance := ledger
	sorted := make([]model.Transaction, len(transactions))
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		transactions[i].Balance = balance
		transactions[i].Hash = transactions[i].GenerateHash()
		sorted[k] = transactions[i]
		balance -= signed[i]
	}
	return sorted
}

// convertTransaction converts an OFX transaction to our model. It also
// returns the signed amount, negative for money leaving the account.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.Transaction, float64) {
	amount, _ := ofxTx.TrnAmt.Float64()

	tx := model.Transaction{
		Date:          ofxTx.DtPosted.Time,
		Details:       p.details(ofxTx),
		AccountID:     accountID,
		PaymentMethod: paymentMethod(ofxTx.TrnType),
	}
	if ofxTx.FiTID != "" {
		tx.ID = accountID + "-" + string(ofxTx.FiTID)
	}
	if ofxTx.CheckNum != "" {
		tx.Notes = "cheque " + string(ofxTx.CheckNum)
	}

	if amount < 0 {
		tx.Type = model.TypeDebit
		tx.Debit = -amount
		tx.Amount = -amount
	} else {
		tx.Type = model.TypeCredit
		tx.Credit = amount
		tx.Amount = amount
	}

	return tx, amount
}

// details builds the narration from the payee, name and memo fields.
func (p *Parser) details(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " posting date
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

func paymentMethod(t fmt.Stringer) string {
	switch t {
	case ofxgo.TrnTypeATM, ofxgo.TrnTypeCash:
		return "cash"
	case ofxgo.TrnTypeCheck:
		return "cheque"
	case ofxgo.TrnTypePOS:
		return "card"
	case ofxgo.TrnTypeXfer:
		return "transfer"
	case ofxgo.TrnTypeDirectDep, ofxgo.TrnTypeDirectDebit:
		return "direct"
	}
	return strings.ToLower(t.String())
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
