package dispatch

const testSpecs = `
name: tigris
description: Test CLI
version: 0.0.1
commands:
  - name: buckets
    description: Manage buckets
    alias: bucket
    commands:
      - name: list
        description: List buckets
        alias: ls
        arguments:
          - name: format
            description: Output format
            alias: f
            options: [table, json, xml]
            default: table
      - name: create
        description: Create a bucket
        alias: mk
        message: Creating bucket...
        examples:
          - tigris buckets create photos
        arguments:
          - name: name
            description: Bucket name
            type: positional
            required: true
          - name: access
            description: Access level
            alias: a
            options:
              - name: Private
                value: private
              - name: Public
                value: public
            default: private
      - name: set
        description: Update bucket settings
  - name: orgs
    description: Manage organizations
    alias: organizations
    default: list
    arguments:
      - name: all
        description: Include every organization
        type: flag
        alias: a
    commands:
      - name: list
        description: List organizations
        arguments:
          - name: format
            description: Output format
            default: table
      - name: select
        description: Select an organization
        arguments:
          - name: name
            description: Organization name
            type: positional
            required: true
  - name: tags
    description: Manage bucket tags
    default: add
    arguments:
      - name: bucket
        description: Bucket name
        alias: b
    commands:
      - name: add
        description: Add a tag
        arguments:
          - name: key
            description: Tag key
            alias: k
            required: true
  - name: snapshots
    description: Manage snapshots
    commands:
      - name: list
        description: List snapshots
  - name: iam
    description: Identity and access
    commands:
      - name: policies
        description: Manage policies
        commands:
          - name: create
            description: Create a policy
            arguments:
              - name: name
                description: Policy name
                type: positional
                required: true
              - name: mode
                description: How the document is built
                alias: m
                options: [document, readonly, readwrite]
                default: document
              - name: bucket
                description: Buckets with read access
                alias: b
                multiple: true
                required-when: mode=readonly
  - name: docs
    description: Print reference docs
    arguments:
      - name: raw
        description: Print raw Markdown
        type: boolean
        default: "false"
      - name: force
        description: Overwrite
        type: flag
        alias: f
`
