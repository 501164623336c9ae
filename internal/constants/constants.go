package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "seqgate"

	// ConfigFileName is the default tool settings file name
	ConfigFileName = ".seqgate.yaml"

	// QCConfigFileName is the default QC rule file name written by init
	QCConfigFileName = "qc_rules.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "SEQGATE"
)

// QC data bundle names
const (
	DataFileJSON   = "qc_data.json"
	DataFileYAML   = "qc_data.yaml"
	DataFileJSONGz = "qc_data.json.gz"
	DataFileYAMLGz = "qc_data.yaml.gz"

	// SampleSheetFileName overrides the bundled samplesheet when present next to the bundle
	SampleSheetFileName = "SampleSheet.csv"
)

// ConfigFileNames returns the tool settings file names searched for, in order
func ConfigFileNames() []string {
	return []string{
		".seqgate.yaml",
		".seqgate.yml",
		"seqgate.yaml",
		"seqgate.yml",
		".seqgate.toml",
		".seqgate.json",
	}
}

// DefaultDataFileNames returns the QC data bundle names looked up in a runfolder
func DefaultDataFileNames() []string {
	return []string{DataFileJSON, DataFileYAML, DataFileJSONGz, DataFileYAMLGz}
}
