package audit

// Fixed-shape wrappers over Log for the common dashboard actions. Each
// applies its action-specific redaction before the generic sanitizer runs,
// so fields like export file paths never reach storage in the clear.

// LogPolicyCreated records creation of a named policy.
func (t *Trail) LogPolicyCreated(actor, policyName string, success bool, errorMessage string) Entry {
	return t.LogAs(PolicyCreated, actor, "", map[string]any{
		"policyName": policyName,
	}, success, errorMessage)
}

// LogPolicyDeployed records a policy push to a machine.
func (t *Trail) LogPolicyDeployed(actor, machine, policyName string, success bool, errorMessage string) Entry {
	return t.LogAs(PolicyDeployed, actor, machine, map[string]any{
		"policyName": policyName,
	}, success, errorMessage)
}

// LogUserAddedToGroup records a group membership addition.
func (t *Trail) LogUserAddedToGroup(actor, user, group string, success bool, errorMessage string) Entry {
	return t.LogAs(UserAddedToGroup, actor, "", map[string]any{
		"user":  user,
		"group": group,
	}, success, errorMessage)
}

// LogUserRemovedFromGroup records a group membership removal.
func (t *Trail) LogUserRemovedFromGroup(actor, user, group string, success bool, errorMessage string) Entry {
	return t.LogAs(UserRemovedFromGroup, actor, "", map[string]any{
		"user":  user,
		"group": group,
	}, success, errorMessage)
}

// LogScanInitiated records the start of a scan over machineCount machines.
func (t *Trail) LogScanInitiated(actor string, machineCount int) Entry {
	return t.LogAs(ScanInitiated, actor, "", map[string]any{
		"machineCount": machineCount,
	}, true, "")
}

// LogScanCompleted records the end of a scan.
func (t *Trail) LogScanCompleted(actor string, machineCount, itemCount int, success bool, errorMessage string) Entry {
	return t.LogAs(ScanCompleted, actor, "", map[string]any{
		"machineCount": machineCount,
		"itemCount":    itemCount,
	}, success, errorMessage)
}

// LogCredentialUsed records use of stored administrative credentials for
// the named purpose. Only the purpose is stored; the credential itself
// never enters the details payload.
func (t *Trail) LogCredentialUsed(actor, purpose string, success bool, errorMessage string) Entry {
	return t.LogAs(CredentialUsed, actor, "", map[string]any{
		"purpose": purpose,
	}, success, errorMessage)
}

// LogDataExported records a data export. The destination path is redacted
// before storage: export paths can reveal share names and user directories.
func (t *Trail) LogDataExported(actor, exportKind, filePath string, recordCount int, success bool, errorMessage string) Entry {
	return t.LogAs(DataExported, actor, "", map[string]any{
		"exportKind":  exportKind,
		"filePath":    RedactionMarker,
		"recordCount": recordCount,
	}, success, errorMessage)
}

// LogEvidenceGenerated records assembly of an evidence package.
func (t *Trail) LogEvidenceGenerated(actor, packageID string, success bool, errorMessage string) Entry {
	return t.LogAs(EvidenceGenerated, actor, "", map[string]any{
		"packageId": packageID,
	}, success, errorMessage)
}

// LogAppStarted records application startup.
func (t *Trail) LogAppStarted(version string) Entry {
	return t.Log(AppStarted, map[string]any{
		"version": version,
	}, true, "")
}

// LogAppStopped records application shutdown.
func (t *Trail) LogAppStopped() Entry {
	return t.Log(AppStopped, nil, true, "")
}
