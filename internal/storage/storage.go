package storage

import "tickdesk/internal/model"

// Journal defines a sink for submitted edit records.
type Journal interface {
	AppendEditRecords(records []model.EditRecord) error
}
