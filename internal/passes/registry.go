package passes

import "github.com/fxnatic/jsdeobf/internal/pipeline"

// All returns every pass in the fixed run order §4.3 specifies, wired
// with the run-time options (rename style, webpack annotation toggle)
// the parameterized passes need. Callers pass the same opts they will
// later hand to pipeline.Deobfuscate.
func All(opts pipeline.Options) []pipeline.Pass {
	return []pipeline.Pass{
		ControlFlowUnflatten(),
		StringArrayRotation(),
		DecoderProxyResolve(),
		DecoderInline(),
		CallProxyInline(),
		OperatorProxyInline(),
		ExpressionSimplify(),
		DeadCodeEliminate(),
		DeadVariableEliminate(),
		FunctionInline(),
		StructuralCleanup(),
		LiteralNormalize(),
		IdentifierRename(opts.RenameStyle),
		EmptyStatementCleanup(),
		SequenceSplit(),
		VariableSplit(),
		TernaryToIf(),
		ShortCircuitToIf(),
		IIFEUnwrap(),
		WebpackModuleAnnotate(opts.AnnotateWebpackModules),
		PeepholeSweep(),
	}
}
