package recommend

// allocateQuota splits the target total between primary and community
// candidates. Community is always represented when any candidate exists.
func allocateQuota(primaryAvailable, communityAvailable int) (primary, community int) {
	p := min(primaryAvailable, maxPrimary)
	c := min(communityAvailable, maxCommunity)

	primary = min(p, targetTotal-c)
	community = min(c, targetTotal-primary)
	if c > 0 && community == 0 {
		community = 1
		primary = min(primary, targetTotal-1)
	}
	return max(primary, 0), max(community, 0)
}
