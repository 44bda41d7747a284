package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickdesk/internal/model"
)

func TestJsonlJournalAppendsThroughInterface(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "edits.jsonl")

	var journal Journal = NewJsonlJournal(path)

	first := model.EditRecord{Owner: "owner1", Pair: "tokenA<>tokenB", TxHash: "AA11", Deposits: 2}
	second := model.EditRecord{Owner: "owner1", Pair: "tokenA<>tokenB", TxHash: "BB22", Withdrawals: 1}

	require.NoError(t, journal.AppendEditRecords([]model.EditRecord{first}))
	require.NoError(t, journal.AppendEditRecords([]model.EditRecord{second}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []model.EditRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.EditRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 2)
	assert.Equal(t, "AA11", got[0].TxHash)
	assert.Equal(t, 2, got[0].Deposits)
	assert.Equal(t, "BB22", got[1].TxHash)
	assert.Equal(t, 1, got[1].Withdrawals)
}

func TestJsonlJournalEmptyBatchNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")

	require.NoError(t, NewJsonlJournal(path).AppendEditRecords(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
