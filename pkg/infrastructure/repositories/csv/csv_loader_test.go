package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

func TestReadTransactions(t *testing.T) {
	input := `organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units
org-1,2024,CREDIT,REPORTABLE,A,MY_2023,12.5
org-1,MY_2024,transfer_away,reportable,unspecified,2022,3
`

	transactions, err := NewLoader().ReadTransactions(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "org-1", transactions[0].OrganizationID)
	assert.Equal(t, entities.MY2024, transactions[0].ComplianceYear)
	assert.Equal(t, "CREDIT REPORTABLE/A MY_2023 12.5", transactions[0].Record.String())
	assert.Equal(t, entities.TransferAway, transactions[1].Record.Kind)
	assert.Equal(t, entities.Unspecified, transactions[1].Record.ZevClass)
	assert.NotEqual(t, transactions[0].ID, transactions[1].ID)
}

func TestReadTransactions_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty file",
			input: "",
			want:  "must have a header",
		},
		{
			name:  "wrong header",
			input: "org,year,type,class,zev,my,units\n",
			want:  "header mismatch",
		},
		{
			name:  "short row",
			input: "organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units\norg-1,2024,CREDIT\n",
			want:  "row 2: expected 7 columns, got 3",
		},
		{
			name:  "negative units",
			input: "organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units\norg-1,2024,DEBIT,REPORTABLE,A,2024,-1\n",
			want:  "row 2: units cannot be negative",
		},
		{
			name:  "unknown zev class",
			input: "organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units\norg-1,2024,DEBIT,REPORTABLE,D,2024,1\n",
			want:  `row 2: unknown zev class "D"`,
		},
		{
			name:  "model year out of range",
			input: "organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units\norg-1,2024,DEBIT,REPORTABLE,A,2040,1\n",
			want:  "row 2: model year 2040 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().ReadTransactions(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadEndingBalances_GroupsRows(t *testing.T) {
	input := `organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units
org-1,2023,CREDIT,REPORTABLE,A,2022,1
org-2,2023,CREDIT,REPORTABLE,B,2022,2
org-1,2023,DEBIT,REPORTABLE,UNSPECIFIED,2023,3
org-1,2022,CREDIT,REPORTABLE,B,2021,4
`

	balances, err := NewLoader().ReadEndingBalances(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, "org-1", balances[0].OrganizationID)
	assert.Equal(t, entities.MY2023, balances[0].ComplianceYear)
	assert.Len(t, balances[0].Records, 2)
	assert.True(t, balances[0].HasDebit())
	assert.Equal(t, entities.MY2022, balances[2].ComplianceYear)
}

func TestReadEndingBalances_RejectsTransfers(t *testing.T) {
	input := `organization_id,compliance_year,type,vehicle_class,zev_class,model_year,units
org-1,2023,TRANSFER_AWAY,REPORTABLE,A,2022,1
`

	_, err := NewLoader().ReadEndingBalances(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "type must be CREDIT or DEBIT")
}

func TestReadSupplyVolumes(t *testing.T) {
	input := `organization_id,model_year,vehicle_class,volume
org-1,2024,REPORTABLE,4500
org-1,2023,REPORTABLE,-2
`

	_, err := NewLoader().ReadSupplyVolumes(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3: volume cannot be negative")

	volumes, err := NewLoader().ReadSupplyVolumes(strings.NewReader(strings.Split(input, "org-1,2023")[0]))
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	assert.Equal(t, "4500", volumes[0].Volume.String())
}

func TestLoadTransferContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.csv")
	content := "vehicle_class,zev_class,model_year,units\nREPORTABLE,B,MY_2022,7.25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lines, err := NewLoader().LoadTransferContent(path)

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, entities.ZevClassB, lines[0].ZevClass)
	assert.Equal(t, entities.MY2022, lines[0].ModelYear)
	assert.Equal(t, "7.25", lines[0].Units.String())
}

func TestLoadTransactions_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadTransactions(filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open transactions file")
}
