/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"
)

func TestCompile(t *testing.T) {
	gt := NewGomegaWithT(t)
	_, err := gexec.Build("github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()
}

func TestCommands(t *testing.T) {
	gt := NewGomegaWithT(t)
	certregistry, err := gexec.Build("github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()

	b, err := exec.Command(certregistry, "version").CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("certregistry:"))

	file := filepath.Join(t.TempDir(), "degree.pdf")
	gt.Expect(os.WriteFile(file, []byte("diploma"), 0o600)).To(Succeed())
	b, err = exec.Command(certregistry, "fingerprint", file).CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring(fingerprint.Fingerprint([]byte("diploma"))))

	cmd := exec.Command(certregistry, "config", "print")
	cmd.Env = append(os.Environ(), "CERTREG_STORAGE_DRIVER=sqlite", "CERTREG_SERVER_ADMINTOKEN=s3cret")
	b, err = cmd.CombinedOutput()
	gt.Expect(err).NotTo(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("driver: sqlite"))
	gt.Expect(string(b)).NotTo(ContainSubstring("s3cret"))

	b, err = exec.Command(certregistry, "reconcile").CombinedOutput()
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("--institution is required"))

	b, err = exec.Command(certregistry, "reconcile", "-i", "unknown").CombinedOutput()
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(string(b)).To(ContainSubstring("failed reconciling [unknown]"))
}
