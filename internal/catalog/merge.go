package catalog

// MergeCatalog overlays remote model descriptors onto the local capability
// table. The result is remote-driven: one entry per remote model, in remote
// order. A remote model whose Name matches a local entry starts from the
// local descriptor and applies whatever fields the remote actually sent;
// capability fields the remote omitted keep their local defaults. Remote
// models with no local match are synthesized and tagged as text models.
//
// Pure function; the I/O and retry shell lives in Service.
func MergeCatalog(local []ModelDescriptor, remote []RemoteModel) []ModelDescriptor {
	byName := make(map[string]ModelDescriptor, len(local))
	for _, m := range local {
		byName[m.Name] = m
	}

	merged := make([]ModelDescriptor, 0, len(remote))
	for _, rm := range remote {
		if rm.Name == "" {
			continue
		}

		base, known := byName[rm.Name]
		if !known {
			base = ModelDescriptor{Name: rm.Name, Type: TypeText}
		}

		if rm.DisplayName != "" {
			base.DisplayName = rm.DisplayName
		}
		if base.DisplayName == "" {
			base.DisplayName = rm.Name
		}
		if rm.Provider != "" {
			base.Provider = rm.Provider
		}
		if rm.Type != "" {
			base.Type = rm.Type
		}
		if rm.Tier != "" {
			base.Tier = Tier(rm.Tier)
		}
		if rm.Description != "" {
			base.Description = rm.Description
		}
		if rm.Capabilities != nil {
			applyCapabilities(&base.Capabilities, rm.Capabilities)
		}

		merged = append(merged, base)
	}
	return merged
}

func applyCapabilities(dst *Capabilities, src *RemoteCapabilities) {
	if src.WebSearchCapable != nil {
		dst.WebSearchCapable = *src.WebSearchCapable
	}
	if src.CodeExecution != nil {
		dst.CodeExecution = *src.CodeExecution
	}
	if src.MaxTokens != nil {
		dst.MaxTokens = *src.MaxTokens
	}
	if src.ContextWindow != nil {
		dst.ContextWindow = *src.ContextWindow
	}
	if src.Multimodal != nil {
		dst.Multimodal = *src.Multimodal
	}
	if src.FunctionCalling != nil {
		dst.FunctionCalling = *src.FunctionCalling
	}
	if src.Streaming != nil {
		dst.Streaming = *src.Streaming
	}
}
