package market

import (
	"github.com/MixinNetwork/mixin/common"
)

const metadataPropertyKey = "MARKET:METADATA"

// ContractMetadata returns the stored record when the owner has updated it,
// otherwise the configured one.
func (m *Marketplace) ContractMetadata() (*ContractMetadata, error) {
	val, err := m.store.ReadProperty([]byte(metadataPropertyKey))
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		meta := m.conf.Metadata
		return &meta, nil
	}
	var meta ContractMetadata
	err = common.MsgpackUnmarshal(val, &meta)
	return &meta, err
}

// UpdateBaseURI replaces the base URI of the contract metadata. Owner only.
func (m *Marketplace) UpdateBaseURI(call *Call, uri string) (*ContractMetadata, error) {
	if err := m.requireOwner(call); err != nil {
		return nil, err
	}
	return m.updateMetadata(func(meta *ContractMetadata) {
		meta.BaseURI = uri
	})
}

// UpdateIcon replaces the icon of the contract metadata. Owner only.
func (m *Marketplace) UpdateIcon(call *Call, icon string) (*ContractMetadata, error) {
	if err := m.requireOwner(call); err != nil {
		return nil, err
	}
	return m.updateMetadata(func(meta *ContractMetadata) {
		meta.Icon = icon
	})
}

func (m *Marketplace) updateMetadata(apply func(*ContractMetadata)) (*ContractMetadata, error) {
	m.Lock()
	defer m.Unlock()

	meta, err := m.ContractMetadata()
	if err != nil {
		return nil, err
	}
	apply(meta)
	err = m.store.WriteProperty([]byte(metadataPropertyKey), common.MsgpackMarshalPanic(meta))
	if err != nil {
		return nil, err
	}
	return meta, nil
}
