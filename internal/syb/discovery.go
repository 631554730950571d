package syb

import (
	"context"
	"fmt"

	"github.com/brightears/zonewatch/internal/logging"
)

// ZoneSnapshot is one zone as seen during a discovery pass. Snapshots are
// rebuilt in full every run; nothing here is incremental.
type ZoneSnapshot struct {
	ZoneID    string `json:"zone_id"`
	AccountID string `json:"account_id"`
	IsPaired  bool   `json:"is_paired"`
}

// Account is one customer account visible to the service token.
type Account struct {
	ID           string
	BusinessName string
}

// Discovery is the aggregate outcome of one discovery pass. Partial is true
// when at least one account's zone sub-query failed; those accounts and their
// errors are listed in AccountErrors while every other account's zones are
// still present in Zones.
type Discovery struct {
	Zones         map[string]ZoneSnapshot
	Partial       bool
	AccountErrors map[string]error
}

const accountsQuery = `
query Accounts($first: Int!, $after: String) {
  me {
    ... on PublicAPIClient {
      accounts(first: $first, after: $after) {
        pageInfo { hasNextPage endCursor }
        edges { node { id businessName } }
      }
    }
  }
}`

const accountZonesQuery = `
query AccountZones($id: ID!, $first: Int!, $after: String) {
  account(id: $id) {
    soundZones(first: $first, after: $after) {
      pageInfo { hasNextPage endCursor }
      edges { node { id isPaired } }
    }
  }
}`

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type accountsData struct {
	Me struct {
		Accounts struct {
			PageInfo pageInfo `json:"pageInfo"`
			Edges    []struct {
				Node struct {
					ID           string `json:"id"`
					BusinessName string `json:"businessName"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"accounts"`
	} `json:"me"`
}

type zonesData struct {
	Account struct {
		SoundZones struct {
			PageInfo pageInfo `json:"pageInfo"`
			Edges    []struct {
				Node struct {
					ID       string `json:"id"`
					IsPaired bool   `json:"isPaired"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"soundZones"`
	} `json:"account"`
}

// Accounts enumerates every account visible to the token, following
// edge/pageInfo pagination until exhausted.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var out []Account
	var cursor string
	for {
		vars := map[string]any{"first": c.pageSize}
		if cursor != "" {
			vars["after"] = cursor
		}
		var data accountsData
		if err := c.query(ctx, accountsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("accounts query: %w", err)
		}
		for _, e := range data.Me.Accounts.Edges {
			out = append(out, Account{ID: e.Node.ID, BusinessName: e.Node.BusinessName})
		}
		if !data.Me.Accounts.PageInfo.HasNextPage {
			return out, nil
		}
		cursor = data.Me.Accounts.PageInfo.EndCursor
	}
}

// ZonesForAccount enumerates every sound zone of one account.
func (c *Client) ZonesForAccount(ctx context.Context, accountID string) ([]ZoneSnapshot, error) {
	var out []ZoneSnapshot
	var cursor string
	for {
		vars := map[string]any{"id": accountID, "first": c.pageSize}
		if cursor != "" {
			vars["after"] = cursor
		}
		var data zonesData
		if err := c.query(ctx, accountZonesQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("zones query for %s: %w", accountID, err)
		}
		for _, e := range data.Account.SoundZones.Edges {
			out = append(out, ZoneSnapshot{ZoneID: e.Node.ID, AccountID: accountID, IsPaired: e.Node.IsPaired})
		}
		if !data.Account.SoundZones.PageInfo.HasNextPage {
			return out, nil
		}
		cursor = data.Account.SoundZones.PageInfo.EndCursor
	}
}

// DiscoverAll walks the accounts -> zones hierarchy sequentially and returns
// the flat zone set. A failing account is logged, recorded in AccountErrors
// and skipped; the error return is reserved for total failure (the accounts
// query itself), which callers should treat as "no change".
func (c *Client) DiscoverAll(ctx context.Context) (*Discovery, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	d := &Discovery{
		Zones:         make(map[string]ZoneSnapshot),
		AccountErrors: make(map[string]error),
	}
	for _, acc := range accounts {
		zones, err := c.ZonesForAccount(ctx, acc.ID)
		if err != nil {
			logging.Get().Warn().Err(err).Str("account", acc.ID).Str("business", acc.BusinessName).Msg("zone discovery failed for account; continuing with partial results")
			d.Partial = true
			d.AccountErrors[acc.ID] = err
			continue
		}
		for _, z := range zones {
			d.Zones[z.ZoneID] = z
		}
	}
	return d, nil
}
