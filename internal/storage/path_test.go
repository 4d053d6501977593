package storage

import "testing"

func TestParsePath(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantFolder bool
	}{
		{"my-bucket", "my-bucket", "", false},
		{"my-bucket/file.txt", "my-bucket", "file.txt", false},
		{"my-bucket/folder/subfolder/file.txt", "my-bucket", "folder/subfolder/file.txt", false},
		{"my-bucket/folder/", "my-bucket", "folder/", true},
		{"my-bucket/folder/*", "my-bucket", "folder/*", false},
		{"my-bucket/folder/file with spaces.txt", "my-bucket", "folder/file with spaces.txt", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := ParsePath(tt.in)
			if p.Bucket != tt.bucket || p.Key != tt.key {
				t.Errorf("ParsePath(%q) = %+v", tt.in, p)
			}
			if p.IsFolder() != tt.wantFolder {
				t.Errorf("IsFolder() = %v", p.IsFolder())
			}
		})
	}
}

func TestRemotePath(t *testing.T) {
	remote := []string{"t3://my-bucket", "t3://my-bucket/folder/", "tigris://my-bucket/file.txt"}
	for _, s := range remote {
		if !IsRemotePath(s) {
			t.Errorf("IsRemotePath(%q) = false", s)
		}
	}
	bare := []string{"my-bucket", "./file.txt", "/abs", "", "t3:/bucket", "T3://bucket", "s3://bucket", "Tigris://bucket"}
	for _, s := range bare {
		if IsRemotePath(s) {
			t.Errorf("IsRemotePath(%q) = true", s)
		}
	}

	tests := []struct {
		in, bucket, key string
	}{
		{"t3://my-bucket", "my-bucket", ""},
		{"t3://my-bucket/folder/subfolder/file.txt", "my-bucket", "folder/subfolder/file.txt"},
		{"tigris://my-bucket/folder/", "my-bucket", "folder/"},
		{"t3://my-bucket/folder/*", "my-bucket", "folder/*"},
		{"plain/key", "plain", "key"},
	}
	for _, tt := range tests {
		p := ParseRemotePath(tt.in)
		if p.Bucket != tt.bucket || p.Key != tt.key {
			t.Errorf("ParseRemotePath(%q) = %+v", tt.in, p)
		}
	}

	if got := (Path{Bucket: "b", Key: "k/x"}).String(); got != "t3://b/k/x" {
		t.Errorf("String() = %q", got)
	}
	if got := (Path{Bucket: "b"}).String(); got != "t3://b" {
		t.Errorf("String() = %q", got)
	}
}

func TestGlobToRegex(t *testing.T) {
	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{"*", []string{"file.txt", ""}, []string{"folder/file.txt"}},
		{"*.txt", []string{"file.txt", "notes.txt"}, []string{"file.jpg", "file.txt.bak", "folder/file.txt"}},
		{"img_*", []string{"img_001.jpg", "img_"}, []string{"photo_001.jpg"}},
		{"data_*.csv", []string{"data_2024.csv", "data_.csv"}, []string{"data_2024.txt", "other_2024.csv"}},
		{"file(1).txt", []string{"file(1).txt"}, []string{"file1.txt"}},
		{"*.tar.gz", []string{"archive.tar.gz"}, []string{"archivetargz"}},
		{"file[1].txt", []string{"file[1].txt"}, []string{"file1.txt"}},
		{"file+name?.txt", []string{"file+name?.txt"}, []string{"fileename.txt"}},
		{"*_backup_*", []string{"db_backup_2024", "_backup_"}, []string{"folder/db_backup_2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := GlobToRegex(tt.pattern)
			for _, s := range tt.match {
				if !re.MatchString(s) {
					t.Errorf("%q should match %q", tt.pattern, s)
				}
			}
			for _, s := range tt.noMatch {
				if re.MatchString(s) {
					t.Errorf("%q should not match %q", tt.pattern, s)
				}
			}
		})
	}
}

func TestWildcardPrefix(t *testing.T) {
	tests := map[string]string{
		"folder/*.txt":  "folder/",
		"*.txt":         "",
		"a/b/*.txt":     "a/b/",
		"a/b/*":         "a/b/",
		"*":             "",
		"folder/img_*":  "folder/",
		"a/b/c/d/*.log": "a/b/c/d/",
	}
	for in, want := range tests {
		if got := WildcardPrefix(in); got != want {
			t.Errorf("WildcardPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
