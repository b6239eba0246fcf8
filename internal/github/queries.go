package github

const userExistsQuery = `query($login: String!) {
  user(login: $login) {
    id
    login
  }
}`

const contributionsQuery = `query($login: String!, $from: DateTime!, $to: DateTime!) {
  rateLimit {
    remaining
    limit
    resetAt
  }
  user(login: $login) {
    login
    contributionsCollection(from: $from, to: $to) {
      totalCommitContributions
      totalPullRequestContributions
      totalIssueContributions
      totalPullRequestReviewContributions
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
      commitContributionsByRepository(maxRepositories: 100) {
        contributions {
          totalCount
        }
        repository {
          name
          url
          isFork
          stargazerCount
          createdAt
          owner {
            login
          }
          languages(first: 10, orderBy: {field: SIZE, direction: DESC}) {
            edges {
              size
              node {
                name
              }
            }
          }
        }
      }
    }
    repositories(first: 100, ownerAffiliations: OWNER, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        name
        url
        isFork
        stargazerCount
        createdAt
        owner {
          login
        }
      }
    }
    repositoriesContributedTo(first: 1, contributionTypes: [COMMIT, PULL_REQUEST, ISSUE, REPOSITORY]) {
      totalCount
    }
  }
}`
