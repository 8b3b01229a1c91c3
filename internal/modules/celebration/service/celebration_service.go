package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"routinectl/internal/modules/celebration/domain"
	"routinectl/internal/modules/celebration/dto"
	celebrationout "routinectl/internal/modules/celebration/port/out"
)

const maxBannerLines = 12

type CelebrationService struct {
	store celebrationout.ManifestStore
	host  celebrationout.Host
}

func NewCelebrationService(store celebrationout.ManifestStore, host celebrationout.Host) *CelebrationService {
	return &CelebrationService{store: store, host: host}
}

func (s *CelebrationService) List(ctx context.Context) ([]dto.PluginInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(manifests))
	for _, m := range manifests {
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		out = append(out, dto.PluginInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Capabilities: caps})
	}
	return out, nil
}

func (s *CelebrationService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.BinaryReachable = fileExists(m.Binary)
		if !result.BinaryReachable {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
			results = append(results, result)
			continue
		}
		result.ChecksumValid = checksumMatches(m.Binary, m.SHA256) == nil
		if !result.ChecksumValid {
			result.Error = "checksum mismatch"
			results = append(results, result)
			continue
		}
		if m.Enabled && s.host != nil {
			if err := s.host.CheckLifecycle(ctx, m); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *CelebrationService) Celebrate(ctx context.Context, summary domain.Summary) ([]domain.Banner, bool, error) {
	if err := summary.Validate(); err != nil {
		return nil, false, err
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		slog.WarnContext(ctx, "plugin manifests unusable, using built-in banner", "err", err)
		manifests = nil
	}
	var banners []domain.Banner
	for _, m := range manifests {
		if !m.Enabled || !m.HasCapability(domain.CapabilityCelebrate) || s.host == nil {
			continue
		}
		if err := checksumMatches(m.Binary, m.SHA256); err != nil {
			slog.WarnContext(ctx, "skipping plugin", "plugin", m.Name, "err", err)
			continue
		}
		lines, err := s.host.Celebrate(ctx, m, summary)
		if err != nil {
			slog.WarnContext(ctx, "plugin celebrate failed", "plugin", m.Name, "err", err)
			continue
		}
		if len(lines) == 0 {
			continue
		}
		if len(lines) > maxBannerLines {
			lines = lines[:maxBannerLines]
		}
		banners = append(banners, domain.Banner{Source: m.Name, Lines: lines})
	}
	if len(banners) == 0 {
		return []domain.Banner{domain.BuiltinBanner(summary)}, true, nil
	}
	return banners, false, nil
}

func (s *CelebrationService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate plugin name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plugin binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
