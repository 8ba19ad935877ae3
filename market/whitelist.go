package market

import "context"

// AddWhitelistedCreator marks an account as an approved creator. Owner only.
func (m *Marketplace) AddWhitelistedCreator(ctx context.Context, call *Call, creator string) error {
	if err := m.requireOwner(call); err != nil {
		return err
	}
	if !ValidAccountID(creator) {
		return ErrInvalidAccount
	}
	m.Lock()
	defer m.Unlock()
	return m.store.Update(func(txn StateTxn) error {
		return txn.AddWhitelisted(creator)
	})
}

// RemoveWhitelistedCreator drops an account from the creator whitelist. Owner
// only.
func (m *Marketplace) RemoveWhitelistedCreator(ctx context.Context, call *Call, creator string) error {
	if err := m.requireOwner(call); err != nil {
		return err
	}
	if !ValidAccountID(creator) {
		return ErrInvalidAccount
	}
	m.Lock()
	defer m.Unlock()
	return m.store.Update(func(txn StateTxn) error {
		return txn.RemoveWhitelisted(creator)
	})
}

func (m *Marketplace) Whitelist() ([]string, error) {
	return m.store.ListWhitelist()
}
