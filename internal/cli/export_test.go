package cli

// Export internal functions for testing.

// RunIngest exports runIngest for testing.
var RunIngest = runIngest

// IngestOptions exports ingestOptions for testing.
type IngestOptions = ingestOptions

// RunTransform exports runTransform for testing.
var RunTransform = runTransform

// TransformOptions exports transformOptions for testing.
type TransformOptions = transformOptions

// RunExport exports runExport for testing.
var RunExport = runExport

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ClampParallel exports clampParallel for testing.
var ClampParallel = clampParallel

// NormalizeFlagName exports normalizeFlagName for testing.
var NormalizeFlagName = normalizeFlagName

// NewLogger exports newLogger for testing.
var NewLogger = newLogger

// WriteFileAtomic exports writeFileAtomic for testing.
var WriteFileAtomic = writeFileAtomic

// WarnNonCSVExtension exports warnNonCSVExtension for testing.
var WarnNonCSVExtension = warnNonCSVExtension

// WriteBackScores exports writeBackScores for testing.
var WriteBackScores = writeBackScores
