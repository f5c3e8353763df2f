package eval

// PluginCaller invokes one command of a registered plugin. The input is the
// collected pipeline input (nil when the pipeline is empty); the returned
// PipelineData may be a lazy stream fed by the plugin process.
type PluginCaller func(path, name string, args []any, flags map[string]any, input any) (PipelineData, error)

// pluginCmd is a command served by an external plugin process. The engine
// records its signature at register time; calls go through the evaler's
// plugin handler.
type pluginCmd struct {
	path string
	name string
	call PluginCaller
}

var _ Command = (*pluginCmd)(nil)

func (p *pluginCmd) Call(fm *Frame, args Args) (PipelineData, error) {
	if p.call == nil {
		return Empty, fm.errorpf(args.CallSpan, "plugin support not available")
	}
	input, err := Collect(fm.input)
	if err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	out, err := p.call(p.path, p.name, args.Pos, args.Flags, input)
	if err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	return out, nil
}
